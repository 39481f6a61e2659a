package models

import "time"

// SegmentStatus tracks the materialization outcome for one segment
type SegmentStatus string

const (
	SegmentStatusPending   SegmentStatus = "pending"
	SegmentStatusSucceeded SegmentStatus = "succeeded"
	SegmentStatusFailed    SegmentStatus = "failed"
)

// SegmentRecord is the persisted per-segment line of a document's processing
// summary: id, title, type, pages, status.
type SegmentRecord struct {
	SegmentID string        `json:"segment_id"`
	Title     string        `json:"title"`
	Type      SegmentType   `json:"type"`
	StartPage int           `json:"start_page"`
	EndPage   int           `json:"end_page"`
	Status    SegmentStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// DocumentRecord is the persisted processing summary for one source document.
// Segments are listed in document order.
type DocumentRecord struct {
	SourceFile   string          `json:"source_file"`
	CorpusID     string          `json:"corpus_id"`
	DocumentType DocumentType    `json:"document_type"`
	PageCount    int             `json:"page_count"`
	Segments     []SegmentRecord `json:"segments"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	ProcessedAt  time.Time       `json:"processed_at"`
}

// FailedSegmentIDs returns the ids of segments that did not materialize
func (d DocumentRecord) FailedSegmentIDs() []string {
	var ids []string
	for _, s := range d.Segments {
		if s.Status == SegmentStatusFailed {
			ids = append(ids, s.SegmentID)
		}
	}
	return ids
}
