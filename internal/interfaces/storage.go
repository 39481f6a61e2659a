package interfaces

import (
	"errors"

	"github.com/ternarybob/tomus/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// DocumentStorage persists per-document processing summaries and segment text
type DocumentStorage interface {
	// SaveDocument stores or replaces a document's processing record
	SaveDocument(record *models.DocumentRecord) error

	// GetDocument retrieves a document record by source file path
	GetDocument(sourceFile string) (*models.DocumentRecord, error)

	// ListDocuments returns all document records for a corpus
	ListDocuments(corpusID string) ([]*models.DocumentRecord, error)

	// SaveProcessedSegment stores a materialized segment's text
	SaveProcessedSegment(corpusID string, seg *models.ProcessedSegment) error

	// GetProcessedSegment retrieves a materialized segment by id
	GetProcessedSegment(corpusID, segmentID string) (*models.ProcessedSegment, error)

	// SaveSegments stores a document's finalized segment list
	SaveSegments(corpusID string, segments []*models.Segment) error

	// ListSegments returns a corpus's segments in document order
	ListSegments(corpusID string) ([]*models.Segment, error)

	// DeleteDocumentSegments removes a source file's segments and their
	// materialized text from a corpus. Re-processing calls this first so
	// a document never leaves two generations of segments behind.
	DeleteDocumentSegments(corpusID, sourceFile string) error
}

// IndexStorage persists the per-corpus retrieval index: chunks plus the
// lexical posting list. Supports incremental append and wholesale rebuild.
type IndexStorage interface {
	// SaveChunks appends chunks to a corpus index
	SaveChunks(corpusID string, chunks []*models.Chunk) error

	// LoadChunks returns all chunks of a corpus in insertion order
	LoadChunks(corpusID string) ([]*models.Chunk, error)

	// DeleteCorpus removes all index data for a corpus (wholesale rebuild)
	DeleteCorpus(corpusID string) error

	// ListCorpora returns the ids of all corpora with persisted chunks
	ListCorpora() ([]string, error)
}

// StorageManager bundles the storage facets behind one lifecycle
type StorageManager interface {
	Documents() DocumentStorage
	Index() IndexStorage
	KV() KVStorage
	Close() error
}
