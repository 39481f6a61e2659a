package citations

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/models"
)

func evidenceFixture(chunkID, filePath, content string) models.Evidence {
	return models.Evidence{
		ChunkID:    chunkID,
		SegmentID:  "seg_1",
		FilePath:   filePath,
		Content:    content,
		SourceType: "chapter",
	}
}

func TestAssemble_OneCitationPerEvidence(t *testing.T) {
	a := NewAssembler(0, nil)

	evidence := []models.Evidence{
		evidenceFixture("c1", "code.pdf", "Setbacks shall be 20 feet."),
		evidenceFixture("c2", "code.pdf", "Heights capped at 35 feet."),
	}

	citations := a.Assemble(evidence)
	require.Len(t, citations, 2)
	assert.Equal(t, "c1", citations[0].ChunkID)
	assert.Equal(t, "c2", citations[1].ChunkID)
	assert.Equal(t, "chapter", citations[0].Source)
}

func TestAssemble_TextIsVerbatimSubstring(t *testing.T) {
	a := NewAssembler(0, nil)

	content := "The board may grant a variance where strict application causes undue hardship."
	citations := a.Assemble([]models.Evidence{evidenceFixture("c1", "code.pdf", content)})

	require.Len(t, citations, 1)
	assert.True(t, strings.Contains(content, citations[0].Text),
		"citation text must be a verbatim substring of the evidence content")
	assert.Equal(t, content, citations[0].Text)
}

func TestAssemble_TruncationStaysVerbatim(t *testing.T) {
	a := NewAssembler(30, nil)

	content := "The planning commission reviews all subdivision applications before final approval."
	citations := a.Assemble([]models.Evidence{evidenceFixture("c1", "code.pdf", content)})

	require.Len(t, citations, 1)
	assert.LessOrEqual(t, len(citations[0].Text), 30)
	assert.True(t, strings.Contains(content, citations[0].Text))
	assert.NotEmpty(t, citations[0].Text)
}

func TestAssemble_TruncationKeepsMultiByteRunesIntact(t *testing.T) {
	a := NewAssembler(10, nil)

	// No spaces in the window, so the cut lands mid-text at the length cap
	content := "Straßenverkehrsordnung §5 Absatz 3 über Parkflächen"
	citations := a.Assemble([]models.Evidence{evidenceFixture("c1", "satzung.pdf", content)})

	require.Len(t, citations, 1)
	text := citations[0].Text
	assert.True(t, utf8.ValidString(text), "excerpt must not split a multi-byte rune")
	assert.True(t, strings.Contains(content, text))
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 10)
	assert.NotEmpty(t, text)
}

func TestAssemble_DeduplicatesByFilePathAndChunk(t *testing.T) {
	a := NewAssembler(0, nil)

	first := evidenceFixture("c1", "code.pdf", "Duplicate evidence content.")
	second := evidenceFixture("c1", "code.pdf", "Duplicate evidence content.")
	second.Anchor = "Chapter 5 Zoning"

	citations := a.Assemble([]models.Evidence{first, second})

	require.Len(t, citations, 1)
	// First occurrence kept, anchor unioned from the duplicate
	assert.Equal(t, "Duplicate evidence content.", citations[0].Text)
	assert.Equal(t, "Chapter 5 Zoning", citations[0].Anchor)
}

func TestAssemble_SameChunkDifferentFileNotMerged(t *testing.T) {
	a := NewAssembler(0, nil)

	citations := a.Assemble([]models.Evidence{
		evidenceFixture("c1", "code.pdf", "From the code."),
		evidenceFixture("c1", "packet.pdf", "From the packet."),
	})

	assert.Len(t, citations, 2)
}

func TestAssemble_EmptyEvidence(t *testing.T) {
	a := NewAssembler(0, nil)
	assert.Empty(t, a.Assemble(nil))
}
