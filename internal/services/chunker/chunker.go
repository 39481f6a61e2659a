// -----------------------------------------------------------------------
// Chunker - splits segment text into fixed-size overlapping windows that
// fully cover the text. Deterministic for a fixed configuration.
// -----------------------------------------------------------------------

package chunker

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
)

// Chunker produces retrieval chunks from processed segments
type Chunker struct {
	size    int
	overlap int
	logger  arbor.ILogger
}

// NewChunker creates a new chunker. Degenerate size/overlap pairs are
// clamped so the window step is always positive.
func NewChunker(config common.ChunkingConfig, logger arbor.ILogger) *Chunker {
	if logger == nil {
		logger = common.GetLogger()
	}

	size := config.Size
	if size <= 0 {
		size = 1000
	}
	overlap := config.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	return &Chunker{
		size:    size,
		overlap: overlap,
		logger:  logger,
	}
}

// Chunk windows the segment text. Window i starts at i*(size-overlap); the
// final window is shortened to end exactly at the text length so the union
// of [StartChar, EndChar) ranges covers the full text with no gap.
func (c *Chunker) Chunk(corpusID string, ps *models.ProcessedSegment) []*models.Chunk {
	runes := []rune(ps.Text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]*models.Chunk, 0, total/step+1)

	for i := 0; ; i++ {
		start := i * step
		if start >= total {
			break
		}
		end := start + c.size
		if end > total {
			end = total
		}

		text := string(runes[start:end])
		chunks = append(chunks, &models.Chunk{
			ID:        common.NewChunkID(ps.SegmentID, i),
			SegmentID: ps.SegmentID,
			CorpusID:  corpusID,
			StartChar: start,
			EndChar:   end,
			Text:      text,
			Keywords:  ExtractKeywords(text, 5),
		})

		if end == total {
			break
		}
	}

	c.logger.Debug().
		Str("segment_id", ps.SegmentID).
		Int("chars", total).
		Int("chunks", len(chunks)).
		Msg("Chunked segment text")

	return chunks
}

// ChunkAll chunks every processed segment in order
func (c *Chunker) ChunkAll(corpusID string, processed []*models.ProcessedSegment) []*models.Chunk {
	var all []*models.Chunk
	for _, ps := range processed {
		all = append(all, c.Chunk(corpusID, ps)...)
	}
	return all
}
