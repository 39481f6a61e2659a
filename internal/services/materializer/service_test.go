package materializer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
)

type fakeRenderer struct {
	texts   map[int]string // keyed by startPage
	failOn  map[int]bool
	outline []models.OutlineNode
}

func (f *fakeRenderer) Render(ctx context.Context, sourcePath string, startPage, endPage int) (*interfaces.RenderResult, error) {
	if f.failOn[startPage] {
		return nil, fmt.Errorf("render failed for pages %d-%d", startPage, endPage)
	}
	text, ok := f.texts[startPage]
	if !ok {
		text = fmt.Sprintf("content of pages %d to %d", startPage, endPage)
	}
	return &interfaces.RenderResult{Text: text}, nil
}

func (f *fakeRenderer) PageCount(sourcePath string) (int, error) { return 100, nil }

func (f *fakeRenderer) Outline(sourcePath string) ([]models.OutlineNode, error) {
	return f.outline, nil
}

func testWorkersConfig() common.WorkersConfig {
	return common.WorkersConfig{
		MaterializeConcurrency: 3,
		RenderTimeout:          "5s",
		RenderRetries:          0,
	}
}

func segmentsFixture(n int) []*models.Segment {
	segs := make([]*models.Segment, n)
	start := 1
	for i := 0; i < n; i++ {
		segs[i] = &models.Segment{
			ID:         fmt.Sprintf("seg_%d", i),
			Title:      fmt.Sprintf("Chapter %d", i+1),
			StartPage:  start,
			EndPage:    start + 9,
			OrderIndex: i,
			SourceFile: "code.pdf",
		}
		start += 10
	}
	return segs
}

func TestMaterializeAll_PreservesDocumentOrder(t *testing.T) {
	svc := NewService(&fakeRenderer{}, testWorkersConfig(), nil)

	segments := segmentsFixture(8)
	result := svc.MaterializeAll(context.Background(), segments)

	require.Len(t, result.Processed, 8)
	require.Empty(t, result.Failures)
	for i, ps := range result.Processed {
		assert.Equal(t, segments[i].ID, ps.SegmentID, "processed order must match document order")
		assert.NotEmpty(t, ps.Text)
	}
}

func TestMaterializeAll_PartialFailure(t *testing.T) {
	// One failing segment must not abort its siblings
	renderer := &fakeRenderer{failOn: map[int]bool{11: true}}
	svc := NewService(renderer, testWorkersConfig(), nil)

	segments := segmentsFixture(4)
	result := svc.MaterializeAll(context.Background(), segments)

	require.Len(t, result.Processed, 3)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "seg_1", result.Failures[0].SegmentID)
	assert.Equal(t, "Chapter 2", result.Failures[0].Title)

	for _, ps := range result.Processed {
		assert.NotEqual(t, "seg_1", ps.SegmentID)
	}
}

func TestMaterializeAll_EmptyTextIsFailure(t *testing.T) {
	renderer := &fakeRenderer{texts: map[int]string{1: "   "}}
	svc := NewService(renderer, testWorkersConfig(), nil)

	segments := segmentsFixture(1)
	result := svc.MaterializeAll(context.Background(), segments)

	assert.Empty(t, result.Processed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Err.Error(), "empty text")
}

func TestMaterializeOne_RetriesThenSucceeds(t *testing.T) {
	cfg := testWorkersConfig()
	cfg.RenderRetries = 2
	renderer := &flakyRenderer{failuresLeft: 2}
	svc := NewService(renderer, cfg, nil)

	seg := segmentsFixture(1)[0]
	ps, err := svc.materializeOne(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, seg.ID, ps.SegmentID)
	assert.Equal(t, 3, renderer.calls)
}

type flakyRenderer struct {
	failuresLeft int
	calls        int
}

func (f *flakyRenderer) Render(ctx context.Context, sourcePath string, startPage, endPage int) (*interfaces.RenderResult, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, fmt.Errorf("transient failure")
	}
	return &interfaces.RenderResult{Text: "recovered content"}, nil
}

func (f *flakyRenderer) PageCount(sourcePath string) (int, error) { return 10, nil }

func (f *flakyRenderer) Outline(sourcePath string) ([]models.OutlineNode, error) { return nil, nil }

func TestParseRendered_PlainTextAndTables(t *testing.T) {
	source := `# Chapter 5 Zoning

General provisions apply to all districts.

| District | Max Height |
|----------|------------|
| R-1      | 35 ft      |
| C-2      | 50 ft      |

See Chapter 6 for enforcement.`

	text, tables := ParseRendered([]byte(source))

	assert.Contains(t, text, "Chapter 5 Zoning")
	assert.Contains(t, text, "General provisions apply to all districts.")
	assert.Contains(t, text, "See Chapter 6 for enforcement.")

	require.Len(t, tables, 1)
	assert.Equal(t, []string{"District", "Max Height"}, tables[0].Headers)
	require.Len(t, tables[0].Rows, 2)
	assert.Equal(t, []string{"R-1", "35 ft"}, tables[0].Rows[0])
	assert.Equal(t, []string{"C-2", "50 ft"}, tables[0].Rows[1])
}

func TestParseRendered_EmptyInput(t *testing.T) {
	text, tables := ParseRendered(nil)
	assert.Empty(t, text)
	assert.Empty(t, tables)
}
