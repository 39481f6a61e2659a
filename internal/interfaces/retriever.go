package interfaces

import (
	"context"

	"github.com/ternarybob/tomus/internal/models"
)

// Retriever serves ranked, deduplicated evidence for free-text queries.
// An empty result means insufficient grounding, not an error.
type Retriever interface {
	// Search returns ordered evidence, highest relevance first
	Search(ctx context.Context, corpusID, query string, filters models.SearchFilters, topK int) ([]models.Evidence, error)

	// KeywordOnly reports whether the corpus index is running without a
	// vector side (degraded mode, no embedding backend)
	KeywordOnly(corpusID string) bool
}
