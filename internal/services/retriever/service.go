// -----------------------------------------------------------------------
// Evidence Retriever - hybrid keyword + vector search over a corpus index
// with configurable rank fusion, confidence floor, and overlap dedup.
// -----------------------------------------------------------------------

package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/index"
)

// Service serves ranked evidence from the corpus index manager
type Service struct {
	index    *index.Manager
	embedder interfaces.EmbeddingService
	config   common.RetrievalConfig
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Retriever = (*Service)(nil)

// NewService creates a new evidence retriever. embedder may be nil for
// keyword-only operation.
func NewService(indexMgr *index.Manager, embedder interfaces.EmbeddingService, config common.RetrievalConfig, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		index:    indexMgr,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// KeywordOnly reports whether the corpus runs without a vector side
func (s *Service) KeywordOnly(corpusID string) bool {
	return s.index.KeywordOnly(corpusID)
}

// Search returns ordered evidence, highest relevance first. An empty result
// means no candidate cleared the confidence floor; callers treat that as
// insufficient grounding, not as an error.
func (s *Service) Search(ctx context.Context, corpusID, query string, filters models.SearchFilters, topK int) ([]models.Evidence, error) {
	if topK <= 0 {
		topK = s.config.TopK
	}

	snap, err := s.index.Snapshot(corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus index %s: %w", corpusID, err)
	}
	if snap.Size() == 0 {
		return nil, nil
	}

	keyword := s.keywordCandidates(snap, query)
	vector := s.vectorCandidates(ctx, snap, query)

	fused := s.fuse(snap, keyword, vector)

	// Order by fused score, ties broken by earlier document order so
	// results are deterministic and stable
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return snap.DocOrder(fused[i].chunkID) < snap.DocOrder(fused[j].chunkID)
	})

	var evidence []models.Evidence
	for _, cand := range fused {
		if cand.score < s.config.ConfidenceThreshold {
			continue
		}
		chunk := snap.Lookup(cand.chunkID)
		if chunk == nil {
			continue
		}
		if !matchesFilters(chunk, filters) {
			continue
		}
		if s.overlapsRetained(evidence, chunk) {
			continue
		}

		evidence = append(evidence, models.Evidence{
			ChunkID:        chunk.ID,
			SegmentID:      chunk.SegmentID,
			FilePath:       chunk.SourceFile,
			Anchor:         chunk.SegmentTitle,
			Content:        chunk.Text,
			StartChar:      chunk.StartChar,
			EndChar:        chunk.EndChar,
			RelevanceScore: cand.score,
			SourceType:     chunk.SourceType,
		})
		if len(evidence) >= topK {
			break
		}
	}

	s.logger.Debug().
		Str("corpus_id", corpusID).
		Str("query", query).
		Int("keyword_candidates", len(keyword)).
		Int("vector_candidates", len(vector)).
		Int("results", len(evidence)).
		Msg("Evidence search complete")

	return evidence, nil
}

// matchesFilters applies the optional source-type and segment narrowing
func matchesFilters(chunk *models.Chunk, filters models.SearchFilters) bool {
	if filters.SourceType != "" && chunk.SourceType != filters.SourceType {
		return false
	}
	if filters.SegmentID != "" && chunk.SegmentID != filters.SegmentID {
		return false
	}
	return true
}

// overlapsRetained reports whether the chunk's char range substantially
// overlaps an already retained, higher-scoring evidence item from the same
// segment.
func (s *Service) overlapsRetained(retained []models.Evidence, chunk *models.Chunk) bool {
	if s.config.DedupOverlap <= 0 {
		return false
	}
	for _, ev := range retained {
		if ev.SegmentID != chunk.SegmentID {
			continue
		}
		overlap := overlapChars(ev.StartChar, ev.EndChar, chunk.StartChar, chunk.EndChar)
		if overlap <= 0 {
			continue
		}
		shorter := ev.EndChar - ev.StartChar
		if l := chunk.EndChar - chunk.StartChar; l < shorter {
			shorter = l
		}
		if shorter > 0 && float64(overlap)/float64(shorter) >= s.config.DedupOverlap {
			return true
		}
	}
	return false
}

func overlapChars(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}
