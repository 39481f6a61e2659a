package interfaces

import "context"

// EmbeddingService computes embedding vectors for text. Output dimension is
// fixed per configuration.
type EmbeddingService interface {
	// Embed generates an embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector per input
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the configured vector dimension
	Dimension() int
}
