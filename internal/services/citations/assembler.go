// -----------------------------------------------------------------------
// Citation Assembler - converts retained evidence into deduplicated,
// auditable citations. Citation text is always a verbatim substring of
// the evidence content.
// -----------------------------------------------------------------------

package citations

import (
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
)

// Assembler derives citations from evidence lists
type Assembler struct {
	maxTextLen int
	logger     arbor.ILogger
}

// NewAssembler creates a new citation assembler. maxTextLen bounds the
// quoted excerpt length; zero means quote the full evidence content.
func NewAssembler(maxTextLen int, logger arbor.ILogger) *Assembler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Assembler{maxTextLen: maxTextLen, logger: logger}
}

// Assemble maps each evidence item to exactly one citation. Items sharing
// the same filePath + chunkId merge, keeping the first occurrence and the
// first non-empty anchor.
func (a *Assembler) Assemble(evidence []models.Evidence) []models.Citation {
	seen := make(map[string]int) // dedup key -> index into citations
	var citations []models.Citation

	for _, ev := range evidence {
		key := ev.FilePath + "|" + ev.ChunkID
		if idx, ok := seen[key]; ok {
			if citations[idx].Anchor == "" && ev.Anchor != "" {
				citations[idx].Anchor = ev.Anchor
			}
			continue
		}

		citations = append(citations, models.Citation{
			Source:    ev.SourceType,
			FilePath:  ev.FilePath,
			Anchor:    ev.Anchor,
			StartChar: ev.StartChar,
			EndChar:   ev.EndChar,
			Text:      a.excerpt(ev.Content),
			ChunkID:   ev.ChunkID,
		})
		seen[key] = len(citations) - 1
	}

	a.logger.Debug().
		Int("evidence", len(evidence)).
		Int("citations", len(citations)).
		Msg("Assembled citations")

	return citations
}

// excerpt trims the quoted text to maxTextLen runes, cutting at a word
// boundary. Rune indexing keeps the cut from splitting multi-byte
// characters; the result is always a contiguous substring of the content.
func (a *Assembler) excerpt(content string) string {
	if a.maxTextLen <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= a.maxTextLen {
		return content
	}

	cut := a.maxTextLen
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = a.maxTextLen
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n")
}
