package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/models"
)

func codeSegments() []*models.Segment {
	return []*models.Segment{
		{ID: "seg_ch5", Title: "Chapter 5 Zoning", Type: models.SegmentTypeChapter},
		{ID: "seg_ch6", Title: "Chapter 6 Enforcement", Type: models.SegmentTypeChapter},
		{ID: "seg_item7a", Title: "Item 7A Budget Amendment", Type: models.SegmentTypeAgendaItem},
	}
}

func TestBuild_ResolvesChapterReferences(t *testing.T) {
	b := NewBuilder(nil)

	processed := []*models.ProcessedSegment{
		{SegmentID: "seg_ch6", Text: "Violations are defined in Chapter 5 of this code."},
	}

	unresolved := b.Build(codeSegments(), processed)
	assert.Zero(t, unresolved)

	require.Len(t, processed[0].References, 1)
	ref := processed[0].References[0]
	assert.Equal(t, "chapter", ref.Kind)
	assert.Equal(t, "5", ref.Number)
	assert.Equal(t, "seg_ch5", ref.TargetID)
	assert.True(t, ref.Resolved())
	assert.Equal(t, "Chapter 5", processed[0].Text[ref.StartChar:ref.EndChar])
}

func TestBuild_SectionSynonyms(t *testing.T) {
	b := NewBuilder(nil)

	tests := []struct {
		name string
		text string
	}{
		{"section symbol", "Setbacks per §5-3 apply."},
		{"sec abbreviation", "Setbacks per Sec. 5-3 apply."},
		{"full word", "Setbacks per Section 5-3 apply."},
		{"lowercase", "setbacks per section 5-3 apply."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processed := []*models.ProcessedSegment{{SegmentID: "seg_ch6", Text: tt.text}}
			b.Build(codeSegments(), processed)

			require.Len(t, processed[0].References, 1)
			ref := processed[0].References[0]
			assert.Equal(t, "section", ref.Kind)
			assert.Equal(t, "5-3", ref.Number)
			// No section-level segment exists; resolves to the owning chapter
			assert.Equal(t, "seg_ch5", ref.TargetID)
		})
	}
}

func TestBuild_ItemReferences(t *testing.T) {
	b := NewBuilder(nil)

	processed := []*models.ProcessedSegment{
		{SegmentID: "seg_ch5", Text: "Funding discussed, see item 7A for details."},
	}

	b.Build(codeSegments(), processed)

	require.Len(t, processed[0].References, 1)
	assert.Equal(t, "item", processed[0].References[0].Kind)
	assert.Equal(t, "seg_item7a", processed[0].References[0].TargetID)
}

func TestBuild_UnresolvedMentionsRetained(t *testing.T) {
	b := NewBuilder(nil)

	processed := []*models.ProcessedSegment{
		{SegmentID: "seg_ch5", Text: "As amended by Chapter 99 of the state code."},
	}

	unresolved := b.Build(codeSegments(), processed)
	assert.Equal(t, 1, unresolved)

	require.Len(t, processed[0].References, 1)
	ref := processed[0].References[0]
	assert.Equal(t, "Chapter 99", ref.RawText)
	assert.False(t, ref.Resolved())
}

func TestBuild_BareNumberTitles(t *testing.T) {
	b := NewBuilder(nil)

	segments := []*models.Segment{
		{ID: "seg_1", Title: "5. Zoning Districts", Type: models.SegmentTypeChapter},
	}
	processed := []*models.ProcessedSegment{
		{SegmentID: "seg_other", Text: "Refer to Chapter 5 for district rules."},
	}

	unresolved := b.Build(segments, processed)
	assert.Zero(t, unresolved)
	assert.Equal(t, "seg_1", processed[0].References[0].TargetID)
}

func TestBuild_LeadingZerosNormalized(t *testing.T) {
	b := NewBuilder(nil)

	segments := []*models.Segment{
		{ID: "seg_7", Title: "Chapter 07 Finance", Type: models.SegmentTypeChapter},
	}
	processed := []*models.ProcessedSegment{
		{SegmentID: "x", Text: "Budget rules live in Chapter 7."},
	}

	unresolved := b.Build(segments, processed)
	assert.Zero(t, unresolved)
	assert.Equal(t, "seg_7", processed[0].References[0].TargetID)
}

func TestBuild_NoReferences(t *testing.T) {
	b := NewBuilder(nil)

	processed := []*models.ProcessedSegment{
		{SegmentID: "seg_ch5", Text: "Plain prose with no internal references at all."},
	}

	unresolved := b.Build(codeSegments(), processed)
	assert.Zero(t, unresolved)
	assert.Empty(t, processed[0].References)
}
