package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/models"
)

type memoryIndexStorage struct {
	chunks map[string][]*models.Chunk
}

func newMemoryIndexStorage() *memoryIndexStorage {
	return &memoryIndexStorage{chunks: make(map[string][]*models.Chunk)}
}

func (s *memoryIndexStorage) SaveChunks(corpusID string, chunks []*models.Chunk) error {
	s.chunks[corpusID] = append(s.chunks[corpusID], chunks...)
	return nil
}

func (s *memoryIndexStorage) LoadChunks(corpusID string) ([]*models.Chunk, error) {
	return s.chunks[corpusID], nil
}

func (s *memoryIndexStorage) DeleteCorpus(corpusID string) error {
	delete(s.chunks, corpusID)
	return nil
}

func (s *memoryIndexStorage) ListCorpora() ([]string, error) {
	var ids []string
	for id := range s.chunks {
		ids = append(ids, id)
	}
	return ids, nil
}

type fixedEmbedder struct {
	dim int
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	v[0] = float32(len(text))
	return v, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *fixedEmbedder) Dimension() int { return e.dim }

func chunkFixture(id, text string) *models.Chunk {
	return &models.Chunk{
		ID:        id,
		SegmentID: "seg_1",
		CorpusID:  "corpus",
		StartChar: 0,
		EndChar:   len(text),
		Text:      text,
	}
}

func TestManager_AddAndSnapshot(t *testing.T) {
	m := NewManager(newMemoryIndexStorage(), nil, nil)

	chunks := []*models.Chunk{
		chunkFixture("c1", "zoning district rules"),
		chunkFixture("c2", "parking requirements"),
	}
	require.NoError(t, m.AddChunks(context.Background(), "corpus", chunks))

	snap, err := m.Snapshot("corpus")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Size())
	assert.Equal(t, "c1", snap.Chunks()[0].ID)
	assert.NotNil(t, snap.Lookup("c2"))
	assert.Equal(t, []string{"c1"}, snap.PostingList("zoning"))
	assert.Equal(t, 0, snap.DocOrder("c1"))
	assert.Equal(t, 1, snap.DocOrder("c2"))
}

func TestManager_AppendIsAdditive(t *testing.T) {
	m := NewManager(newMemoryIndexStorage(), nil, nil)
	ctx := context.Background()

	require.NoError(t, m.AddChunks(ctx, "corpus", []*models.Chunk{chunkFixture("c1", "alpha")}))
	before, err := m.Snapshot("corpus")
	require.NoError(t, err)

	require.NoError(t, m.AddChunks(ctx, "corpus", []*models.Chunk{chunkFixture("c2", "beta")}))
	after, err := m.Snapshot("corpus")
	require.NoError(t, err)

	// The earlier snapshot stays intact; the new one is a superset
	assert.Equal(t, 1, before.Size())
	assert.Equal(t, 2, after.Size())
	assert.Equal(t, "c1", after.Chunks()[0].ID)
}

func TestManager_RebuildReplacesWholesale(t *testing.T) {
	storage := newMemoryIndexStorage()
	m := NewManager(storage, nil, nil)
	ctx := context.Background()

	require.NoError(t, m.AddChunks(ctx, "corpus", []*models.Chunk{
		chunkFixture("old1", "old content"),
		chunkFixture("old2", "more old content"),
	}))

	require.NoError(t, m.Rebuild(ctx, "corpus", []*models.Chunk{chunkFixture("new1", "fresh content")}))

	snap, err := m.Snapshot("corpus")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Size())
	assert.Nil(t, snap.Lookup("old1"))
	assert.NotNil(t, snap.Lookup("new1"))

	persisted, _ := storage.LoadChunks("corpus")
	require.Len(t, persisted, 1)
	assert.Equal(t, "new1", persisted[0].ID)
}

func TestManager_LazyLoadFromStorage(t *testing.T) {
	storage := newMemoryIndexStorage()
	storage.SaveChunks("corpus", []*models.Chunk{chunkFixture("persisted", "stored earlier")})

	m := NewManager(storage, nil, nil)
	snap, err := m.Snapshot("corpus")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Size())
	assert.NotNil(t, snap.Lookup("persisted"))
}

func TestManager_KeywordOnlyWithoutEmbedder(t *testing.T) {
	m := NewManager(newMemoryIndexStorage(), nil, nil)
	require.NoError(t, m.AddChunks(context.Background(), "corpus", []*models.Chunk{chunkFixture("c1", "text")}))

	assert.True(t, m.KeywordOnly("corpus"))

	snap, err := m.Snapshot("corpus")
	require.NoError(t, err)
	assert.False(t, snap.HasVectors())
}

func TestManager_EmbedderAttachesVectors(t *testing.T) {
	m := NewManager(newMemoryIndexStorage(), &fixedEmbedder{dim: 4}, nil)
	require.NoError(t, m.AddChunks(context.Background(), "corpus", []*models.Chunk{chunkFixture("c1", "text")}))

	snap, err := m.Snapshot("corpus")
	require.NoError(t, err)
	assert.True(t, snap.HasVectors())
	assert.Len(t, snap.Lookup("c1").Embedding, 4)
	assert.False(t, m.KeywordOnly("corpus"))
}

func TestManager_ConcurrentReadsDuringWrite(t *testing.T) {
	m := NewManager(newMemoryIndexStorage(), nil, nil)
	ctx := context.Background()

	require.NoError(t, m.AddChunks(ctx, "corpus", []*models.Chunk{chunkFixture("c1", "seed")}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			m.AddChunks(ctx, "corpus", []*models.Chunk{
				chunkFixture(fmt.Sprintf("w%d", i), "concurrent write"),
			})
		}
	}()

	for i := 0; i < 200; i++ {
		snap, err := m.Snapshot("corpus")
		require.NoError(t, err)
		// Every observed snapshot is internally consistent
		for _, ch := range snap.Chunks() {
			assert.NotNil(t, snap.Lookup(ch.ID))
		}
	}
	<-done
}

func TestSnapshot_PostingListDeduplicatesTokens(t *testing.T) {
	snap := buildSnapshot("corpus", []*models.Chunk{
		chunkFixture("c1", "zoning zoning zoning"),
	})
	assert.Equal(t, []string{"c1"}, snap.PostingList("zoning"))
}

func TestSnapshot_DocOrderUnknownIDSortsLast(t *testing.T) {
	snap := buildSnapshot("corpus", []*models.Chunk{chunkFixture("c1", "text")})
	assert.Equal(t, 1, snap.DocOrder("missing"))
}
