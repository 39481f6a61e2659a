package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/index"
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

func (s *memoryIndexStorage) ListCorpora() ([]string, error) { return nil, nil }

// termEmbedder maps text onto a tiny fixed vocabulary so cosine similarity
// behaves predictably in tests
type termEmbedder struct{}

var vocabulary = []string{"zoning", "parking", "budget", "water"}

func (e *termEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, len(vocabulary))
	lower := strings.ToLower(text)
	for i, term := range vocabulary {
		v[i] = float32(strings.Count(lower, term))
	}
	return v, nil
}

func (e *termEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *termEmbedder) Dimension() int { return len(vocabulary) }

func retrievalConfig() common.RetrievalConfig {
	cfg := common.NewDefaultConfig().Retrieval
	cfg.ConfidenceThreshold = 0.01
	return cfg
}

func chunkWith(id, segmentID, text string, start, end int) *models.Chunk {
	return &models.Chunk{
		ID:         id,
		SegmentID:  segmentID,
		CorpusID:   "corpus",
		StartChar:  start,
		EndChar:    end,
		Text:       text,
		SourceFile: "code.pdf",
		SourceType: "chapter",
	}
}

func seededService(t *testing.T, embed bool, chunks ...*models.Chunk) *Service {
	t.Helper()
	var embedder *termEmbedder
	if embed {
		embedder = &termEmbedder{}
	}

	var mgr *index.Manager
	if embed {
		mgr = index.NewManager(newMemoryIndexStorage(), embedder, nil)
	} else {
		mgr = index.NewManager(newMemoryIndexStorage(), nil, nil)
	}
	require.NoError(t, mgr.AddChunks(context.Background(), "corpus", chunks))

	if embed {
		return NewService(mgr, embedder, retrievalConfig(), nil)
	}
	return NewService(mgr, nil, retrievalConfig(), nil)
}

func TestSearch_KeywordOnlyReturnsResults(t *testing.T) {
	// No embedding backend: keyword results still flow, flagged as degraded
	svc := seededService(t, false,
		chunkWith("c1", "seg_a", "zoning district height limits", 0, 30),
		chunkWith("c2", "seg_b", "parking requirements downtown", 0, 29),
	)

	results, err := svc.Search(context.Background(), "corpus", "zoning height", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.True(t, svc.KeywordOnly("corpus"))
}

func TestSearch_BelowThresholdReturnsEmpty(t *testing.T) {
	svc := seededService(t, false,
		chunkWith("c1", "seg_a", "zoning district height limits and many other words", 0, 50),
	)
	svc.config.ConfidenceThreshold = 0.9

	// Only one of four query terms matches; score stays below the floor
	results, err := svc.Search(context.Background(), "corpus", "zoning sewer easement variance", models.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results, "insufficient grounding must yield an empty list, not an error")
}

func TestSearch_MoreMatchingTermsRankHigher(t *testing.T) {
	svc := seededService(t, false,
		chunkWith("partial", "seg_a", "zoning rules for the district", 0, 29),
		chunkWith("full", "seg_b", "zoning height setback rules for every district", 0, 46),
	)

	results, err := svc.Search(context.Background(), "corpus", "zoning height setback", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "full", results[0].ChunkID)
	assert.Greater(t, results[0].RelevanceScore, results[1].RelevanceScore)
}

func TestSearch_TieBreaksByDocumentOrder(t *testing.T) {
	svc := seededService(t, false,
		chunkWith("first", "seg_a", "budget hearing scheduled", 0, 24),
		chunkWith("second", "seg_b", "budget hearing adjourned", 0, 24),
	)

	results, err := svc.Search(context.Background(), "corpus", "budget hearing", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ChunkID)
	assert.Equal(t, "second", results[1].ChunkID)
}

func TestSearch_OverlappingChunksDeduplicated(t *testing.T) {
	// Two windows over the same segment share most of their range; only the
	// higher-scoring one survives
	svc := seededService(t, false,
		chunkWith("w1", "seg_a", "zoning variance procedure zoning appeal", 0, 100),
		chunkWith("w2", "seg_a", "zoning variance procedure", 20, 120),
		chunkWith("other", "seg_b", "zoning note", 0, 11),
	)
	svc.config.DedupOverlap = 0.5

	results, err := svc.Search(context.Background(), "corpus", "zoning variance", models.SearchFilters{}, 10)
	require.NoError(t, err)

	var fromSegA int
	for _, ev := range results {
		if ev.SegmentID == "seg_a" {
			fromSegA++
		}
	}
	assert.Equal(t, 1, fromSegA, "substantially overlapping evidence must collapse")
}

func TestSearch_FiltersBySegmentAndSourceType(t *testing.T) {
	svc := seededService(t, false,
		chunkWith("c1", "seg_a", "water rates increase", 0, 20),
		chunkWith("c2", "seg_b", "water main replacement", 0, 22),
	)

	results, err := svc.Search(context.Background(), "corpus", "water", models.SearchFilters{SegmentID: "seg_b"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ChunkID)

	none, err := svc.Search(context.Background(), "corpus", "water", models.SearchFilters{SourceType: "agenda_item"}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearch_HybridRRFPrefersAgreement(t *testing.T) {
	svc := seededService(t, true,
		chunkWith("both", "seg_a", "zoning zoning zoning district", 0, 29),
		chunkWith("kwonly", "seg_b", "district of columbia", 0, 20),
	)
	svc.config.FusionMode = "rrf"
	svc.config.ConfidenceThreshold = 0.001

	results, err := svc.Search(context.Background(), "corpus", "zoning district", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "both", results[0].ChunkID)
	assert.False(t, svc.KeywordOnly("corpus"))
}

func TestSearch_LinearFusion(t *testing.T) {
	svc := seededService(t, true,
		chunkWith("vec", "seg_a", "zoning district map", 0, 19),
		chunkWith("kw", "seg_b", "district parking area", 0, 21),
	)
	svc.config.FusionMode = "linear"
	svc.config.KeywordWeight = 0.5
	svc.config.VectorWeight = 0.5
	svc.config.ConfidenceThreshold = 0.001

	results, err := svc.Search(context.Background(), "corpus", "zoning district", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "vec", results[0].ChunkID)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	mgr := index.NewManager(newMemoryIndexStorage(), nil, nil)
	svc := NewService(mgr, nil, retrievalConfig(), nil)

	results, err := svc.Search(context.Background(), "empty", "anything", models.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TopKLimitsResults(t *testing.T) {
	chunks := []*models.Chunk{}
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunkWith(
			common.NewChunkID("seg_a", i), "seg_"+string(rune('a'+i)),
			"recycling program details", i*100, i*100+25))
	}
	svc := seededService(t, false, chunks...)

	results, err := svc.Search(context.Background(), "corpus", "recycling program", models.SearchFilters{}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
