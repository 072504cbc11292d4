package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// sampleText is embedded to check that the model answers with the configured dimension.
const sampleText = "Photosynthesis converts light energy into chemical energy."

// ConfigValidator checks provider settings against the live services.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithValidationTimeout bounds each provider check. Defaults to 5s.
func WithValidationTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding pings the embedding provider and embeds a sample sentence.
// When settings pin Dimensions, a model returning another length fails with
// domain.ErrDimensionMismatch. Unconfigured providers pass.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return err
	}
	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return fmt.Errorf("embed sample: %w", err)
	}
	if settings.Dimensions > 0 && len(vec) != settings.Dimensions {
		return fmt.Errorf("%w: %s returns %d dimensions, config expects %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), settings.Dimensions)
	}
	return nil
}

// ValidateLLM pings the generation provider. Unconfigured providers pass.
func (v *ConfigValidator) ValidateLLM(settings *domain.GenerationSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
