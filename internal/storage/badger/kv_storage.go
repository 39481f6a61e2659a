package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// kvRow is a generic key-value record for small operational state
type kvRow struct {
	Key   string `badgerhold:"key"`
	Value []byte
}

// KVStorage implements interfaces.KVStorage on badgerhold
type KVStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.KVStorage = (*KVStorage)(nil)

// NewKVStorage creates a new key-value storage instance
func NewKVStorage(db *BadgerDB, logger arbor.ILogger) *KVStorage {
	return &KVStorage{db: db, logger: logger}
}

func (s *KVStorage) Set(key string, value []byte) error {
	if err := s.db.Store().Upsert(key, &kvRow{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *KVStorage) Get(key string) ([]byte, error) {
	var row kvRow
	if err := s.db.Store().Get(key, &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return row.Value, nil
}

func (s *KVStorage) Delete(key string) error {
	if err := s.db.Store().Delete(key, &kvRow{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *KVStorage) Has(key string) (bool, error) {
	var row kvRow
	err := s.db.Store().Get(key, &row)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check key %s: %w", key, err)
	}
	return true, nil
}
