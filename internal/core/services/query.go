package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService resolves a question to context, using the vector retriever
// or the keyword engine depending on the configured backend.
type QueryService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	corpus    driven.CorpusStore
	retriever *Retriever

	backend      domain.IndexBackend
	retrieval    domain.RetrievalSettings
	embedTimeout time.Duration
	indexTimeout time.Duration
}

// NewQueryService creates a new query service.
// The embedder and index may be nil; see IngestService for the semantics.
func NewQueryService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	corpus driven.CorpusStore,
	settings *domain.Settings,
) *QueryService {
	return &QueryService{
		embedder:     embedder,
		index:        index,
		corpus:       corpus,
		retriever:    NewRetriever(index, settings.Index.Timeout()),
		backend:      settings.Index.Backend,
		retrieval:    settings.Retrieval,
		embedTimeout: settings.Embedding.Timeout(),
		indexTimeout: settings.Index.Timeout(),
	}
}

// Query returns the context visible to session for text.
func (s *QueryService) Query(ctx context.Context, text, session string) (domain.Context, error) {
	logger.Section("Query")

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Context{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	session = strings.TrimSpace(session)
	logger.Debug("Query: %q, session: %q, backend: %s", text, session, s.backend)

	if !s.backend.RequiresEmbedding() {
		if s.corpus == nil {
			logger.Warn("Query unavailable: keyword corpus not configured")
			return domain.Context{}, domain.ErrBackendUnavailable
		}
		result := KeywordSearch(text, visibleChunks(s.corpus.All(), session), s.retrieval.ResultLimit)
		logger.Info("Keyword context: %s, %d passages", result.Status, len(result.Passages))
		return result, nil
	}

	if s.index == nil || s.embedder == nil {
		logger.Warn("Query unavailable: backend %s not connected", s.backend)
		return domain.Context{}, domain.ErrBackendUnavailable
	}

	empty, err := s.isEmpty(ctx)
	if err != nil {
		return domain.Context{}, err
	}
	if empty {
		logger.Info("Index is empty")
		return domain.NoNotesContext(), nil
	}

	vector, err := s.embedQuery(ctx, text)
	if err != nil {
		return domain.Context{}, err
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	result, err := s.retriever.Retrieve(ctx, vector, RetrieveOptions{
		Session:        session,
		GlobalTopK:     s.retrieval.GlobalTopK,
		SessionTopK:    s.retrieval.SessionTopK,
		Limit:          s.retrieval.ResultLimit,
		ScoreThreshold: s.retrieval.ScoreThreshold,
	})
	if err != nil {
		return domain.Context{}, err
	}

	logger.Info("Vector context: %s, %d passages", result.Status, len(result.Passages))
	return result, nil
}

func (s *QueryService) isEmpty(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()

	n, err := s.index.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count records: %w", domain.TimeoutError("count", err))
	}
	return n == 0, nil
}

func (s *QueryService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embed query: %w", domain.TimeoutError("embed", err))
	}
	return vector, nil
}

// visibleChunks keeps the global partition plus the session's own chunks.
func visibleChunks(corpus []domain.Chunk, session string) []domain.Chunk {
	filter := domain.InCategories(domain.GlobalCategory)
	if session != "" && session != domain.GlobalCategory {
		filter = domain.InCategories(domain.GlobalCategory, session)
	}

	visible := make([]domain.Chunk, 0, len(corpus))
	for _, c := range corpus {
		if filter.Matches(c.Category) {
			visible = append(visible, c)
		}
	}
	return visible
}
