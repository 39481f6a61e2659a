// -----------------------------------------------------------------------
// Corpus Index Manager - owns the per-corpus hybrid index. Writers are
// exclusive per corpus and publish complete snapshots; readers always see
// a consistent snapshot, never a half-written index.
// -----------------------------------------------------------------------

package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
)

// Manager maintains lexical and vector indexes per corpus, persisted in
// storage and lazily loaded on first access.
type Manager struct {
	storage  interfaces.IndexStorage
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger

	mu        sync.RWMutex
	snapshots map[string]*Snapshot

	writerMu sync.Mutex
	writers  map[string]*sync.Mutex

	degradedOnce sync.Once
}

// NewManager creates a new index manager. embedder may be nil, in which case
// all corpora run keyword-only.
func NewManager(storage interfaces.IndexStorage, embedder interfaces.EmbeddingService, logger arbor.ILogger) *Manager {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Manager{
		storage:   storage,
		embedder:  embedder,
		logger:    logger,
		snapshots: make(map[string]*Snapshot),
		writers:   make(map[string]*sync.Mutex),
	}
}

// Snapshot returns the current consistent view of a corpus, loading
// persisted chunks on first access.
func (m *Manager) Snapshot(corpusID string) (*Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.snapshots[corpusID]
	m.mu.RUnlock()
	if ok {
		return snap, nil
	}

	lock := m.writerLock(corpusID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have loaded while we waited
	m.mu.RLock()
	snap, ok = m.snapshots[corpusID]
	m.mu.RUnlock()
	if ok {
		return snap, nil
	}

	chunks, err := m.storage.LoadChunks(corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", corpusID, err)
	}

	snap = buildSnapshot(corpusID, chunks)
	m.publish(corpusID, snap)

	m.logger.Info().
		Str("corpus_id", corpusID).
		Int("chunks", snap.Size()).
		Bool("vectors", snap.HasVectors()).
		Msg("Loaded corpus index")

	return snap, nil
}

// AddChunks appends chunks to a corpus. Existing chunk boundaries are never
// mutated; the increment is persisted and a superset snapshot is published.
func (m *Manager) AddChunks(ctx context.Context, corpusID string, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	lock := m.writerLock(corpusID)
	lock.Lock()
	defer lock.Unlock()

	m.attachEmbeddings(ctx, chunks)

	if err := m.storage.SaveChunks(corpusID, chunks); err != nil {
		return fmt.Errorf("failed to persist chunks for corpus %s: %w", corpusID, err)
	}

	m.mu.RLock()
	prev := m.snapshots[corpusID]
	m.mu.RUnlock()

	var combined []*models.Chunk
	if prev != nil {
		combined = append(combined, prev.Chunks()...)
	} else if loaded, err := m.storage.LoadChunks(corpusID); err == nil {
		// First touch of this corpus; the loaded set already includes the
		// chunks saved above
		m.publish(corpusID, buildSnapshot(corpusID, loaded))
		return nil
	}
	combined = append(combined, chunks...)

	m.publish(corpusID, buildSnapshot(corpusID, combined))

	m.logger.Info().
		Str("corpus_id", corpusID).
		Int("added", len(chunks)).
		Int("total", len(combined)).
		Msg("Appended chunks to corpus index")

	return nil
}

// Rebuild discards and recreates the entire corpus index
func (m *Manager) Rebuild(ctx context.Context, corpusID string, chunks []*models.Chunk) error {
	lock := m.writerLock(corpusID)
	lock.Lock()
	defer lock.Unlock()

	m.attachEmbeddings(ctx, chunks)

	if err := m.storage.DeleteCorpus(corpusID); err != nil {
		return fmt.Errorf("failed to clear corpus %s: %w", corpusID, err)
	}
	if len(chunks) > 0 {
		if err := m.storage.SaveChunks(corpusID, chunks); err != nil {
			return fmt.Errorf("failed to persist rebuilt corpus %s: %w", corpusID, err)
		}
	}

	m.publish(corpusID, buildSnapshot(corpusID, chunks))

	m.logger.Info().
		Str("corpus_id", corpusID).
		Int("chunks", len(chunks)).
		Msg("Rebuilt corpus index")

	return nil
}

// KeywordOnly reports whether the corpus serves keyword-only results. The
// degraded mode is logged once per process, not treated as an error.
func (m *Manager) KeywordOnly(corpusID string) bool {
	if m.embedder == nil {
		m.degradedOnce.Do(func() {
			m.logger.Warn().Msg("No embedding backend configured, indexes degrade to keyword-only search")
		})
		return true
	}

	m.mu.RLock()
	snap, ok := m.snapshots[corpusID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return !snap.HasVectors()
}

// Invalidate drops a corpus's in-memory snapshot; the next access reloads
// from storage.
func (m *Manager) Invalidate(corpusID string) {
	m.mu.Lock()
	delete(m.snapshots, corpusID)
	m.mu.Unlock()
}

// attachEmbeddings fills in vectors for chunks that lack one. An embedding
// failure degrades the affected chunks to keyword-only rather than failing
// the index write.
func (m *Manager) attachEmbeddings(ctx context.Context, chunks []*models.Chunk) {
	if m.embedder == nil {
		return
	}

	var pending []*models.Chunk
	var texts []string
	for _, ch := range chunks {
		if !ch.HasEmbedding() {
			pending = append(pending, ch)
			texts = append(texts, ch.Text)
		}
	}
	if len(pending) == 0 {
		return
	}

	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Int("chunks", len(pending)).
			Msg("Embedding failed, chunks indexed without vectors")
		return
	}

	for i, ch := range pending {
		if i < len(vectors) {
			ch.Embedding = vectors[i]
		}
	}
}

func (m *Manager) publish(corpusID string, snap *Snapshot) {
	m.mu.Lock()
	m.snapshots[corpusID] = snap
	m.mu.Unlock()
}

func (m *Manager) writerLock(corpusID string) *sync.Mutex {
	m.writerMu.Lock()
	defer m.writerMu.Unlock()
	lock, ok := m.writers[corpusID]
	if !ok {
		lock = &sync.Mutex{}
		m.writers[corpusID] = lock
	}
	return lock
}
