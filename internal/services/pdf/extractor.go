// -----------------------------------------------------------------------
// PDF Extractor Service - Page counts, embedded outlines, and page-range
// text extraction. Uses pdfcpu for Go-native PDF processing.
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
)

// Extractor implements the Renderer interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
	conf    *model.Configuration
}

// Compile-time interface assertion
var _ interfaces.Renderer = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	if logger == nil {
		logger = common.GetLogger()
	}

	// Temp directory for trimmed sub-range files and extracted content
	tempDir := filepath.Join(os.TempDir(), "tomus-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
		conf:    model.NewDefaultConfiguration(),
	}
}

// PageCount returns the total number of pages in the source document
func (e *Extractor) PageCount(sourcePath string) (int, error) {
	pdfCtx, err := api.ReadContextFile(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context for %s: %w", sourcePath, err)
	}
	return pdfCtx.PageCount, nil
}

// Outline reads the document's embedded bookmark tree. Returns an empty
// slice when the document carries no outline.
func (e *Extractor) Outline(sourcePath string) ([]models.OutlineNode, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", sourcePath, err)
	}
	defer f.Close()

	bookmarks, err := api.Bookmarks(f, e.conf)
	if err != nil {
		// pdfcpu reports an error for documents without an outline tree
		e.logger.Debug().
			Str("source", filepath.Base(sourcePath)).
			Err(err).
			Msg("No readable outline in document")
		return nil, nil
	}

	return convertBookmarks(bookmarks), nil
}

// convertBookmarks maps pdfcpu's bookmark tree onto the outline model
func convertBookmarks(bookmarks []pdfcpu.Bookmark) []models.OutlineNode {
	if len(bookmarks) == 0 {
		return nil
	}

	nodes := make([]models.OutlineNode, 0, len(bookmarks))
	for _, bm := range bookmarks {
		node := models.OutlineNode{
			Title:     strings.TrimSpace(bm.Title),
			StartPage: bm.PageFrom,
			Children:  convertBookmarks(bm.Kids),
		}
		if bm.PageThru > 0 && bm.PageThru >= bm.PageFrom {
			node.EndPage = bm.PageThru
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Render extracts text for pages [startPage, endPage] of sourcePath. The
// page range is trimmed into a scratch file so extraction only touches the
// requested pages; extracted page text is reassembled in original page order.
func (e *Extractor) Render(ctx context.Context, sourcePath string, startPage, endPage int) (*interfaces.RenderResult, error) {
	if startPage < 1 || endPage < startPage {
		return nil, fmt.Errorf("invalid page range [%d, %d] for %s", startPage, endPage, sourcePath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	trimmed := filepath.Join(e.tempDir, fmt.Sprintf("trim_%s.pdf", runID))
	defer os.Remove(trimmed)

	pageRange := []string{fmt.Sprintf("%d-%d", startPage, endPage)}
	if err := api.TrimFile(sourcePath, trimmed, pageRange, e.conf); err != nil {
		return nil, fmt.Errorf("failed to trim pages %d-%d from %s: %w", startPage, endPage, sourcePath, err)
	}

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", runID))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(trimmed, outDir, nil, e.conf); err != nil {
		return nil, fmt.Errorf("failed to extract content for pages %d-%d of %s: %w", startPage, endPage, sourcePath, err)
	}

	// Trimmed pages are renumbered from 1; map back to original page numbers
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		// pdfcpu names extracted files "<basename>_Content_page_<n>.txt"
		idx := strings.Index(file.Name(), "Content_page_")
		if idx < 0 {
			continue
		}
		var trimmedPage int
		if _, err := fmt.Sscanf(file.Name()[idx:], "Content_page_%d", &trimmedPage); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		pageTexts[startPage+trimmedPage-1] = string(content)
	}

	var builder strings.Builder
	for pageNum := startPage; pageNum <= endPage; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	e.logger.Debug().
		Str("source", filepath.Base(sourcePath)).
		Int("start_page", startPage).
		Int("end_page", endPage).
		Int("chars", builder.Len()).
		Msg("Rendered page range")

	// pdfcpu carries no table detection; tables arrive as markdown in the
	// text stream and are pulled out downstream
	return &interfaces.RenderResult{
		Text:   builder.String(),
		Tables: nil,
	}, nil
}
