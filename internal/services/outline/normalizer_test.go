package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/models"
)

func TestNormalize_FlattensInDocumentOrder(t *testing.T) {
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{
			Title:     "Chapter 1",
			StartPage: 1,
			Children: []models.OutlineNode{
				{Title: "Section 1.1", StartPage: 2},
				{Title: "Section 1.2", StartPage: 5},
			},
		},
		{Title: "Chapter 2", StartPage: 10},
	}

	result := n.Normalize(nodes, 20)

	require.Len(t, result.Entries, 4)
	assert.Equal(t, "Chapter 1", result.Entries[0].Title)
	assert.Equal(t, 0, result.Entries[0].Depth)
	assert.Equal(t, "Section 1.1", result.Entries[1].Title)
	assert.Equal(t, 1, result.Entries[1].Depth)
	assert.Equal(t, "Section 1.2", result.Entries[2].Title)
	assert.Equal(t, "Chapter 2", result.Entries[3].Title)
	assert.Equal(t, 0, result.Entries[3].Depth)
	assert.Empty(t, result.Warnings)
}

func TestNormalize_DropsOutOfRangeEntries(t *testing.T) {
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{Title: "Chapter 1", StartPage: 1},
		{Title: "Phantom", StartPage: 99},
		{Title: "Chapter 2", StartPage: 5},
	}

	result := n.Normalize(nodes, 10)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "Chapter 1", result.Entries[0].Title)
	assert.Equal(t, "Chapter 2", result.Entries[1].Title)

	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "Phantom", result.Dropped[0].Title)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Phantom")
}

func TestNormalize_MergesDuplicateStartPages(t *testing.T) {
	// Scenario: two entries share a start page at the same depth; the first
	// title wins and the collision is recorded as a warning
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{Title: "Chapter 1", StartPage: 1},
		{Title: "Chapter 1 (cont.)", StartPage: 1},
		{Title: "Chapter 2", StartPage: 8},
	}

	result := n.Normalize(nodes, 15)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "Chapter 1", result.Entries[0].Title)
	assert.Equal(t, "Chapter 2", result.Entries[1].Title)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "duplicate start page")
}

func TestNormalize_SameStartPageDifferentDepthIsKept(t *testing.T) {
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{
			Title:     "Chapter 1",
			StartPage: 1,
			Children: []models.OutlineNode{
				{Title: "Section 1.1", StartPage: 1},
			},
		},
	}

	result := n.Normalize(nodes, 10)

	require.Len(t, result.Entries, 2)
	assert.Empty(t, result.Warnings)
}

func TestNormalize_KeepsExplicitEndPages(t *testing.T) {
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{Title: "Chapter 1", StartPage: 1, EndPage: 4},
		{Title: "Chapter 2", StartPage: 5},
	}

	result := n.Normalize(nodes, 10)

	require.Len(t, result.Entries, 2)
	assert.True(t, result.Entries[0].HasEndPage())
	assert.Equal(t, 4, result.Entries[0].EndPage)
	assert.False(t, result.Entries[1].HasEndPage())
}

func TestNormalize_EmptyOutline(t *testing.T) {
	n := NewNormalizer(nil)

	result := n.Normalize(nil, 100)

	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, -1, result.MaxDepth())
}

func TestNormalize_ChildrenOfDroppedParentSurvive(t *testing.T) {
	n := NewNormalizer(nil)

	nodes := []models.OutlineNode{
		{
			Title:     "Bad parent",
			StartPage: 50,
			Children: []models.OutlineNode{
				{Title: "Good child", StartPage: 3},
			},
		},
	}

	result := n.Normalize(nodes, 10)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Good child", result.Entries[0].Title)
	assert.Equal(t, 1, result.Entries[0].Depth)
	require.Len(t, result.Dropped, 1)
}

func TestEntriesAtDepth(t *testing.T) {
	result := models.NormalizeResult{
		Entries: []models.OutlineEntry{
			{Title: "A", Depth: 0, StartPage: 1},
			{Title: "A.1", Depth: 1, StartPage: 2},
			{Title: "B", Depth: 0, StartPage: 10},
		},
	}

	top := result.EntriesAtDepth(0)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Title)
	assert.Equal(t, "B", top[1].Title)
	assert.Equal(t, 1, result.MaxDepth())
}
