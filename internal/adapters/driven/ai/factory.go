// Package ai provides factory functions for creating AI service and vector
// index adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ollamaembed "github.com/custodia-labs/notesrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/notesrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/embedding/throttle"
	ollamallm "github.com/custodia-labs/notesrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/notesrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex/local"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex/qdrant"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex/sqlite"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// LocalIndexDir is the directory under the data dir used by the local backend.
const LocalIndexDir = "local"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	// IndexReason explains why VectorIndex is nil for a vector backend.
	IndexReason string
	// Warnings lists non-fatal issues, such as an unreachable generator.
	Warnings []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates every service the settings ask for. Failures never abort
// startup: the affected service is left nil and the reason recorded, so
// callers return domain.ErrBackendUnavailable or ErrGeneratorUnavailable.
func Init(ctx context.Context, settings *domain.Settings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.EmbeddingService = embedder

	if settings.Index.Backend.RequiresEmbedding() {
		switch {
		case embedder == nil:
			result.IndexReason = "embedding service unavailable"
		default:
			index, err := CreateVectorIndex(ctx, settings, embedder.Dimensions())
			if err != nil {
				logger.Warn("Vector index unavailable: %v", err)
				result.IndexReason = err.Error()
			}
			result.VectorIndex = index
		}
	}

	llm, err := CreateAndValidateLLMService(ctx, &settings.Generation)
	if err != nil {
		logger.Warn("Answer generator unavailable: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLMService = llm

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: embedding service unreachable (%w)", domain.ErrBackendUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.GenerationSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrGeneratorUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service selected by settings,
// throttled when RequestsPerSecond is set.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errors.New("embedding provider not configured")
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)

	case domain.AIProviderOpenAI:
		openai, err := createOpenAIEmbedding(settings)
		if err != nil {
			return nil, err
		}
		svc = openai

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}

	return throttle.Wrap(svc, throttle.Config{
		RequestsPerSecond: settings.RequestsPerSecond,
		Burst:             settings.Burst,
	}), nil
}

// CreateLLMService creates the generation service selected by settings.
func CreateLLMService(settings *domain.GenerationSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errors.New("generation provider not configured")
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	default:
		return nil, fmt.Errorf("%w: generation provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateVectorIndex opens the index backend selected by settings.
// The keyword backend has no index and returns nil.
func CreateVectorIndex(ctx context.Context, settings *domain.Settings, dims int) (driven.VectorIndex, error) {
	switch settings.Index.Backend {
	case domain.IndexBackendKeyword:
		return nil, nil

	case domain.IndexBackendLocal:
		if !settings.Index.Persist {
			return local.New(dims), nil
		}
		dir, err := DataDir(settings.Notes.DataDir)
		if err != nil {
			return nil, err
		}
		idx, err := local.Open(dims, filepath.Join(dir, LocalIndexDir))
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.IndexBackendSQLite:
		dir, err := DataDir(settings.Notes.DataDir)
		if err != nil {
			return nil, err
		}
		idx, err := sqlite.Open(dir, dims)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.IndexBackendQdrant:
		idx, err := qdrant.New(ctx, qdrant.Config{
			URL:        settings.Index.QdrantURL,
			APIKey:     settings.Index.QdrantAPIKey,
			Collection: settings.Index.Collection,
			Dimensions: dims,
			Timeout:    settings.Index.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, settings.Index.Backend)
	}
}

// DataDir resolves the index data directory, defaulting to ~/.notesrag/data.
func DataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".notesrag", "data"), nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Timeout:        settings.Timeout(),
		Dimensions:     settings.Dimensions,
		QueryPrefix:    settings.QueryPrefix,
		DocumentPrefix: settings.DocumentPrefix,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Timeout:        settings.Timeout(),
		Dimensions:     settings.Dimensions,
		QueryPrefix:    settings.QueryPrefix,
		DocumentPrefix: settings.DocumentPrefix,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.GenerationSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout(),
	})
}

// createOpenAILLM creates an OpenAI-compatible LLM service.
func createOpenAILLM(settings *domain.GenerationSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout(),
	})
}
