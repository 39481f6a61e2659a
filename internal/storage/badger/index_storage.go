package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// chunkRow wraps a chunk with its corpus key and insertion sequence
type chunkRow struct {
	Key      string `badgerhold:"key"`
	CorpusID string
	Seq      int
	Chunk    models.Chunk
}

// corpusRow marks a corpus as having persisted index data
type corpusRow struct {
	CorpusID string `badgerhold:"key"`
}

// IndexStorage implements interfaces.IndexStorage on badgerhold
type IndexStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IndexStorage = (*IndexStorage)(nil)

// NewIndexStorage creates a new index storage instance
func NewIndexStorage(db *BadgerDB, logger arbor.ILogger) *IndexStorage {
	return &IndexStorage{db: db, logger: logger}
}

// SaveChunks appends chunks to a corpus index, extending the insertion
// sequence so LoadChunks preserves order across increments.
func (s *IndexStorage) SaveChunks(corpusID string, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	existing, err := s.db.Store().Count(&chunkRow{}, badgerhold.Where("CorpusID").Eq(corpusID))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to count chunks for corpus %s: %w", corpusID, err)
	}

	for i, ch := range chunks {
		row := chunkRow{
			Key:      corpusID + "/" + ch.ID,
			CorpusID: corpusID,
			Seq:      int(existing) + i,
			Chunk:    *ch,
		}
		if err := s.db.Store().Upsert(row.Key, &row); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", ch.ID, err)
		}
	}

	if err := s.db.Store().Upsert(corpusID, &corpusRow{CorpusID: corpusID}); err != nil {
		return fmt.Errorf("failed to mark corpus %s: %w", corpusID, err)
	}

	s.logger.Debug().
		Str("corpus_id", corpusID).
		Int("chunks", len(chunks)).
		Msg("Persisted corpus chunks")

	return nil
}

// LoadChunks returns all chunks of a corpus in insertion order
func (s *IndexStorage) LoadChunks(corpusID string) ([]*models.Chunk, error) {
	var rows []chunkRow
	err := s.db.Store().Find(&rows, badgerhold.Where("CorpusID").Eq(corpusID).SortBy("Seq"))
	if err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to load chunks for corpus %s: %w", corpusID, err)
	}

	chunks := make([]*models.Chunk, len(rows))
	for i := range rows {
		chunks[i] = &rows[i].Chunk
	}
	return chunks, nil
}

// DeleteCorpus removes all index data for a corpus
func (s *IndexStorage) DeleteCorpus(corpusID string) error {
	if err := s.db.Store().DeleteMatching(&chunkRow{}, badgerhold.Where("CorpusID").Eq(corpusID)); err != nil {
		return fmt.Errorf("failed to delete chunks for corpus %s: %w", corpusID, err)
	}
	if err := s.db.Store().Delete(corpusID, &corpusRow{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete corpus marker %s: %w", corpusID, err)
	}
	return nil
}

// ListCorpora returns the ids of all corpora with persisted chunks
func (s *IndexStorage) ListCorpora() ([]string, error) {
	var rows []corpusRow
	err := s.db.Store().Find(&rows, nil)
	if err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to list corpora: %w", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.CorpusID
	}
	return ids, nil
}
