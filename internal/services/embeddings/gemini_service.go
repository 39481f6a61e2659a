// -----------------------------------------------------------------------
// Gemini Embedding Service - embedding collaborator backed by the Gemini
// API with rate limiting and per-call timeouts.
// -----------------------------------------------------------------------

package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
)

// GeminiService implements EmbeddingService against the Gemini API
type GeminiService struct {
	client    *genai.Client
	modelName string
	dimension int
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini embedding service
func NewGeminiService(ctx context.Context, config common.EmbeddingsConfig, logger arbor.ILogger) (*GeminiService, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid embedding timeout '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	logger.Info().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Int("requests_per_minute", rpm).
		Msg("Gemini embedding service initialized")

	return &GeminiService{
		client:    client,
		modelName: config.Model,
		dimension: config.Dimension,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:    logger,
	}, nil
}

// Embed generates an embedding vector for a single text
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit wait cancelled: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	start := time.Now()
	result, err := s.client.Models.EmbedContent(callCtx, s.modelName,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	s.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, one vector per input
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimension returns the configured vector dimension
func (s *GeminiService) Dimension() int {
	return s.dimension
}
