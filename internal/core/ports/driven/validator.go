package driven

import "github.com/custodia-labs/notesrag/internal/core/domain"

// AIConfigValidator checks provider settings against the live service.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
	// ValidateLLM pings the configured generation provider.
	ValidateLLM(settings *domain.GenerationSettings) error
}
