// -----------------------------------------------------------------------
// Outline Normalizer - flattens a raw hierarchical outline tree into a
// validated, depth-tagged boundary candidate list.
// -----------------------------------------------------------------------

package outline

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
)

// Normalizer converts raw outline trees into flat OutlineEntry sequences
type Normalizer struct {
	logger arbor.ILogger
}

// NewNormalizer creates a new outline normalizer
func NewNormalizer(logger arbor.ILogger) *Normalizer {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize flattens the tree in document order, tagging each entry with its
// structural nesting depth. Entries beyond the page count are dropped and
// reported; duplicate start pages at the same depth merge keeping the first
// title. Both conditions are warnings, never fatal.
func (n *Normalizer) Normalize(nodes []models.OutlineNode, pageCount int) *models.NormalizeResult {
	result := &models.NormalizeResult{}
	seen := make(map[int]map[int]string) // depth -> startPage -> first title

	n.flatten(nodes, 0, pageCount, seen, result)

	n.logger.Debug().
		Int("entries", len(result.Entries)).
		Int("dropped", len(result.Dropped)).
		Int("warnings", len(result.Warnings)).
		Msg("Normalized outline")

	return result
}

func (n *Normalizer) flatten(nodes []models.OutlineNode, depth, pageCount int, seen map[int]map[int]string, result *models.NormalizeResult) {
	for _, node := range nodes {
		entry := models.OutlineEntry{
			Title:     node.Title,
			Depth:     depth,
			StartPage: node.StartPage,
			EndPage:   node.EndPage,
		}

		switch {
		case node.StartPage < 1 || node.StartPage > pageCount:
			result.Dropped = append(result.Dropped, entry)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("dropped entry %q: start page %d outside document (1-%d)", node.Title, node.StartPage, pageCount))
			n.logger.Warn().
				Str("title", node.Title).
				Int("start_page", node.StartPage).
				Int("page_count", pageCount).
				Msg("Dropped out-of-range outline entry")

		case n.isDuplicate(seen, depth, node.StartPage):
			first := seen[depth][node.StartPage]
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("merged entry %q into %q: duplicate start page %d at depth %d", node.Title, first, node.StartPage, depth))
			n.logger.Warn().
				Str("title", node.Title).
				Str("kept", first).
				Int("start_page", node.StartPage).
				Int("depth", depth).
				Msg("Merged duplicate outline entry")

		default:
			if seen[depth] == nil {
				seen[depth] = make(map[int]string)
			}
			seen[depth][node.StartPage] = node.Title
			result.Entries = append(result.Entries, entry)
		}

		// Children are flattened even when the parent was dropped or merged;
		// their own start pages decide whether they survive
		n.flatten(node.Children, depth+1, pageCount, seen, result)
	}
}

func (n *Normalizer) isDuplicate(seen map[int]map[int]string, depth, startPage int) bool {
	pages, ok := seen[depth]
	if !ok {
		return false
	}
	_, dup := pages[startPage]
	return dup
}
