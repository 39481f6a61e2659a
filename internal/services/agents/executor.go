package agents

import (
	"context"

	"github.com/ternarybob/tomus/internal/models"
)

// Answer is an executor's composed response with its supporting citations.
// Grounded is false when retrieval produced no evidence above threshold; the
// answer text then states the gap instead of speculating.
type Answer struct {
	Text      string            `json:"text"`
	Citations []models.Citation `json:"citations,omitempty"`
	Grounded  bool              `json:"grounded"`
}

// Executor answers questions against one corpus
type Executor interface {
	// Name returns the executor's registry name
	Name() string

	// Execute answers a question using evidence from the corpus
	Execute(ctx context.Context, corpusID, question string) (*Answer, error)
}
