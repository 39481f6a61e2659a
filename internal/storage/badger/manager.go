package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	documents interfaces.DocumentStorage
	index     interfaces.IndexStorage
	kv        interfaces.KVStorage
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		documents: NewDocumentStorage(db, logger),
		index:     NewIndexStorage(db, logger),
		kv:        NewKVStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Documents returns the document storage facet
func (m *Manager) Documents() interfaces.DocumentStorage {
	return m.documents
}

// Index returns the index storage facet
func (m *Manager) Index() interfaces.IndexStorage {
	return m.index
}

// KV returns the key-value storage facet
func (m *Manager) KV() interfaces.KVStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
