package models

import "fmt"

// StructuralError reports a violated segmentation invariant (gap or overlap
// in page coverage). Fatal for the document; indicates a planner bug and is
// never silently masked.
type StructuralError struct {
	Document string
	Reason   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error in %s: %s", e.Document, e.Reason)
}

// SegmentFailure records a rendering failure scoped to one segment. Siblings
// continue; failures are aggregated into the processing summary.
type SegmentFailure struct {
	SegmentID string
	Title     string
	Err       error
}

func (e *SegmentFailure) Error() string {
	return fmt.Sprintf("segment %s (%s) failed: %v", e.SegmentID, e.Title, e.Err)
}

func (e *SegmentFailure) Unwrap() error {
	return e.Err
}
