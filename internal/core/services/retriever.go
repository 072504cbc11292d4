package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// RetrieveOptions bounds one retrieval.
type RetrieveOptions struct {
	// Session is the caller's category. Empty or "global" queries only the
	// shared partition.
	Session string

	GlobalTopK  int
	SessionTopK int

	// Limit caps the merged context. Defaults to domain.DefaultResultLimit.
	Limit int

	// ScoreThreshold drops matches scoring below it. Nil keeps everything.
	ScoreThreshold *float64
}

// Retriever fans a query vector out to the global and session partitions
// and merges the results into one ranked, deduplicated context.
type Retriever struct {
	index   driven.VectorIndex
	timeout time.Duration
}

// NewRetriever creates a retriever over index. A nil index is allowed and
// makes every call return domain.ErrBackendUnavailable.
func NewRetriever(index driven.VectorIndex, timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = domain.DefaultIndexTimeout * time.Second
	}
	return &Retriever{index: index, timeout: timeout}
}

// Retrieve returns up to opts.Limit unique passages. Global matches are
// listed before session matches and the combined list is stable-sorted by
// descending score, so equal scores keep that order.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, opts RetrieveOptions) (domain.Context, error) {
	if r.index == nil {
		logger.Warn("Retrieval unavailable: vector index is nil")
		return domain.Context{}, domain.ErrBackendUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultResultLimit
	}
	globalK := opts.GlobalTopK
	if globalK <= 0 {
		globalK = domain.DefaultGlobalTopK
	}
	sessionK := opts.SessionTopK
	if sessionK <= 0 {
		sessionK = domain.DefaultSessionTopK
	}

	matches, err := r.query(ctx, vector, globalK, domain.GlobalCategory)
	if err != nil {
		return domain.Context{}, err
	}
	logger.Debug("Global matches: %d", len(matches))

	if opts.Session != "" && opts.Session != domain.GlobalCategory {
		sessionMatches, err := r.query(ctx, vector, sessionK, opts.Session)
		if err != nil {
			return domain.Context{}, err
		}
		logger.Debug("Session %q matches: %d", opts.Session, len(sessionMatches))
		matches = append(matches, sessionMatches...)
	}

	return mergeMatches(matches, opts.ScoreThreshold, limit), nil
}

func (r *Retriever) query(ctx context.Context, vector []float32, topK int, category string) ([]domain.QueryMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	matches, err := r.index.Query(ctx, vector, topK, domain.InCategories(category))
	if err != nil {
		logger.Warn("Vector query for %q failed: %v", category, err)
		return nil, fmt.Errorf("query %s: %w", category, domain.TimeoutError("vector query", err))
	}
	return matches, nil
}

// mergeMatches sorts, filters, deduplicates by exact text and truncates.
func mergeMatches(matches []domain.QueryMatch, threshold *float64, limit int) domain.Context {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	seen := make(map[string]struct{}, len(matches))
	passages := make([]domain.Passage, 0, limit)
	for _, m := range matches {
		if threshold != nil && m.Score < *threshold {
			continue
		}
		if _, dup := seen[m.Text]; dup {
			continue
		}
		seen[m.Text] = struct{}{}
		passages = append(passages, domain.Passage{
			Text:     m.Text,
			Source:   m.Source,
			Category: m.Category,
			Score:    m.Score,
		})
		if len(passages) == limit {
			break
		}
	}

	if len(passages) == 0 {
		return domain.NoMatchesContext()
	}
	return domain.Context{Status: domain.ContextOK, Passages: passages}
}
