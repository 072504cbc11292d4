// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, only keyword retrieval is available.
//
// EmbeddingService generates vectors; VectorIndex stores them. Both sides of
// a deployment must agree on Dimensions.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for a passage.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery generates a vector embedding for a search query.
	// Providers with task-type prefixes embed queries differently from
	// passages, but the dimension is always the same.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple passages in one call.
	// The result preserves input order with one vector per input.
	// A failure attributable to one input is a *domain.EmbeddingError.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before committing to a backend.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
