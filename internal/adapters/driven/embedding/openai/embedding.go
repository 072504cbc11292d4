// Package openai provides an embedding service adapter for the OpenAI
// /embeddings API and compatible endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/httpx"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 1536
)

// nativeDimensions lists known models. text-embedding-3-* also accept a
// shorter dimensions parameter.
var nativeDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is required.
	APIKey string
	// BaseURL defaults to https://api.openai.com/v1.
	BaseURL string
	// Model defaults to text-embedding-3-small.
	Model string
	// Timeout bounds each request (default 60s).
	Timeout time.Duration
	// Dimensions overrides the model's native vector size.
	Dimensions int

	QueryPrefix    string
	DocumentPrefix string
}

// EmbeddingService embeds passages and queries through the OpenAI API.
type EmbeddingService struct {
	api            *httpx.Client
	model          string
	dimensions     int
	sendDimensions bool
	queryPrefix    string
	documentPrefix string
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates an OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	native, known := nativeDimensions[cfg.Model]
	dims := cfg.Dimensions
	if dims == 0 {
		dims = native
		if !known {
			dims = DefaultDimensions
		}
	}

	return &EmbeddingService{
		api:            httpx.NewClient("openai", cfg.BaseURL, cfg.Timeout, httpx.BearerAuth(cfg.APIKey)),
		model:          cfg.Model,
		dimensions:     dims,
		sendDimensions: strings.HasPrefix(cfg.Model, "text-embedding-3-"),
		queryPrefix:    cfg.QueryPrefix,
		documentPrefix: cfg.DocumentPrefix,
	}, nil
}

// Embed generates a vector embedding for a passage.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedOne(ctx, s.documentPrefix+text)
}

// EmbedQuery generates a vector embedding for a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.embedOne(ctx, s.queryPrefix+text)
}

// EmbedBatch embeds all passages in one request, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = s.documentPrefix + t
	}
	return s.embed(ctx, inputs)
}

func (s *EmbeddingService) embedOne(ctx context.Context, input string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *EmbeddingService) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: inputs}
	if s.sendDimensions {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", resp.Error.Message)
	}

	// The API may return data out of order; Index is authoritative.
	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(inputs) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedding model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks the API key against /models without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

// Close drops idle connections.
func (s *EmbeddingService) Close() error {
	s.api.Close()
	return nil
}
