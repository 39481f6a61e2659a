package models

import "time"

// SegmentType classifies what a segment represents in the source document
type SegmentType string

const (
	SegmentTypeChapter        SegmentType = "chapter"
	SegmentTypeAgendaItem     SegmentType = "agenda_item"
	SegmentTypeSection        SegmentType = "section"
	SegmentTypeSingleDocument SegmentType = "single_document"
)

// DocumentType is the planner's document-type hint
type DocumentType string

const (
	DocumentTypeMunicipalCode DocumentType = "municipal_code"
	DocumentTypeMeetingPacket DocumentType = "meeting_packet"
	DocumentTypeGeneric       DocumentType = "generic"
)

// Segment is one contiguous page range treated as a logical unit.
// Across a document, segment ranges are contiguous, non-overlapping, and
// cover [1, pageCount]; OrderIndex is strictly increasing in document order.
type Segment struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Type       SegmentType       `json:"type"`
	StartPage  int               `json:"start_page"`
	EndPage    int               `json:"end_page"`
	ParentID   string            `json:"parent_id,omitempty"`
	OrderIndex int               `json:"order_index"`
	SourceFile string            `json:"source_file"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// PageCount returns the number of pages the segment spans
func (s Segment) PageCount() int {
	return s.EndPage - s.StartPage + 1
}

// ProcessedSegment holds the materialized text for one segment. It is created
// once per segment and replaced wholesale on a forced rebuild, never mutated.
type ProcessedSegment struct {
	SegmentID  string           `json:"segment_id"`
	Text       string           `json:"text"`
	Tables     []Table          `json:"tables,omitempty"`
	References []CrossReference `json:"references,omitempty"`
	RenderedAt time.Time        `json:"rendered_at"`
}

// Table is a table detected by the rendering collaborator
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// CrossReference is a reference mention found in segment text. TargetID is
// empty when the mention could not be resolved; unresolved mentions are
// retained so callers can still display the raw text.
type CrossReference struct {
	RawText   string `json:"raw_text"`
	Kind      string `json:"kind"` // "chapter", "section", "item"
	Number    string `json:"number"`
	TargetID  string `json:"target_id,omitempty"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// Resolved reports whether the mention was matched to a target segment
func (r CrossReference) Resolved() bool {
	return r.TargetID != ""
}
