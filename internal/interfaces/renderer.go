package interfaces

import (
	"context"

	"github.com/ternarybob/tomus/internal/models"
)

// RenderResult is the rendering collaborator's output for one page range
type RenderResult struct {
	Text   string
	Tables []models.Table
}

// Renderer turns a page sub-range of a source document into text and tables.
// Implementations must be callable independently for any page sub-range and
// must honor context cancellation.
type Renderer interface {
	// Render extracts text for pages [startPage, endPage] of sourcePath
	Render(ctx context.Context, sourcePath string, startPage, endPage int) (*RenderResult, error)

	// PageCount returns the total number of pages in the source document
	PageCount(sourcePath string) (int, error)

	// Outline reads the document's embedded outline tree; returns an empty
	// slice when the document carries no outline
	Outline(sourcePath string) ([]models.OutlineNode, error)
}
