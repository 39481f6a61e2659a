package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// segmentRow wraps a segment with its corpus key for querying
type segmentRow struct {
	Key      string `badgerhold:"key"`
	CorpusID string
	Order    int
	Segment  models.Segment
}

// processedRow wraps materialized segment text with its corpus key
type processedRow struct {
	Key       string `badgerhold:"key"`
	CorpusID  string
	Processed models.ProcessedSegment
}

// DocumentStorage implements interfaces.DocumentStorage on badgerhold
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentStorage = (*DocumentStorage)(nil)

// NewDocumentStorage creates a new document storage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) *DocumentStorage {
	return &DocumentStorage{db: db, logger: logger}
}

// SaveDocument stores or replaces a document's processing record
func (s *DocumentStorage) SaveDocument(record *models.DocumentRecord) error {
	if err := s.db.Store().Upsert(record.SourceFile, record); err != nil {
		return fmt.Errorf("failed to save document record %s: %w", record.SourceFile, err)
	}
	return nil
}

// GetDocument retrieves a document record by source file path
func (s *DocumentStorage) GetDocument(sourceFile string) (*models.DocumentRecord, error) {
	var record models.DocumentRecord
	if err := s.db.Store().Get(sourceFile, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document record %s: %w", sourceFile, err)
	}
	return &record, nil
}

// ListDocuments returns all document records for a corpus
func (s *DocumentStorage) ListDocuments(corpusID string) ([]*models.DocumentRecord, error) {
	var records []models.DocumentRecord
	err := s.db.Store().Find(&records, badgerhold.Where("CorpusID").Eq(corpusID))
	if err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to list documents for corpus %s: %w", corpusID, err)
	}

	out := make([]*models.DocumentRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

// SaveSegments stores a document's finalized segment list
func (s *DocumentStorage) SaveSegments(corpusID string, segments []*models.Segment) error {
	for _, seg := range segments {
		row := segmentRow{
			Key:      corpusID + "/" + seg.ID,
			CorpusID: corpusID,
			Order:    seg.OrderIndex,
			Segment:  *seg,
		}
		if err := s.db.Store().Upsert(row.Key, &row); err != nil {
			return fmt.Errorf("failed to save segment %s: %w", seg.ID, err)
		}
	}
	return nil
}

// ListSegments returns a corpus's segments in document order
func (s *DocumentStorage) ListSegments(corpusID string) ([]*models.Segment, error) {
	var rows []segmentRow
	err := s.db.Store().Find(&rows, badgerhold.Where("CorpusID").Eq(corpusID).SortBy("Order"))
	if err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to list segments for corpus %s: %w", corpusID, err)
	}

	segments := make([]*models.Segment, len(rows))
	for i := range rows {
		segments[i] = &rows[i].Segment
	}
	return segments, nil
}

// DeleteDocumentSegments removes a source file's segment and processed-text
// rows from a corpus. Segment IDs are fresh per processing run, so replacing
// a document without this sweep would leave the prior run's rows behind.
func (s *DocumentStorage) DeleteDocumentSegments(corpusID, sourceFile string) error {
	var rows []segmentRow
	err := s.db.Store().Find(&rows, badgerhold.Where("CorpusID").Eq(corpusID))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to list segments for corpus %s: %w", corpusID, err)
	}

	removed := 0
	for _, row := range rows {
		if row.Segment.SourceFile != sourceFile {
			continue
		}
		if err := s.db.Store().Delete(row.Key, &segmentRow{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete segment %s: %w", row.Segment.ID, err)
		}
		if err := s.db.Store().Delete(row.Key, &processedRow{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete segment text %s: %w", row.Segment.ID, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug().
			Str("corpus_id", corpusID).
			Str("source", sourceFile).
			Int("segments", removed).
			Msg("Removed prior document segments")
	}
	return nil
}

// SaveProcessedSegment stores a materialized segment's text
func (s *DocumentStorage) SaveProcessedSegment(corpusID string, ps *models.ProcessedSegment) error {
	row := processedRow{
		Key:       corpusID + "/" + ps.SegmentID,
		CorpusID:  corpusID,
		Processed: *ps,
	}
	if err := s.db.Store().Upsert(row.Key, &row); err != nil {
		return fmt.Errorf("failed to save processed segment %s: %w", ps.SegmentID, err)
	}
	return nil
}

// GetProcessedSegment retrieves a materialized segment by id
func (s *DocumentStorage) GetProcessedSegment(corpusID, segmentID string) (*models.ProcessedSegment, error) {
	var row processedRow
	if err := s.db.Store().Get(corpusID+"/"+segmentID, &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get processed segment %s: %w", segmentID, err)
	}
	return &row.Processed, nil
}
