package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func match(score float64, text, category string) domain.QueryMatch {
	return domain.QueryMatch{Score: score, Text: text, Source: "notes.txt", Category: category}
}

func TestRetriever_NilIndex(t *testing.T) {
	r := NewRetriever(nil, time.Second)

	_, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{Session: "s1"})
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Equal(t, domain.BackendUnavailableMessage, domain.UserMessage(err))
}

func TestRetriever_QueriesGlobalThenSession(t *testing.T) {
	idx := &mockVectorIndex{byCat: map[string][]domain.QueryMatch{}}
	r := NewRetriever(idx, time.Second)

	_, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{Session: "s1", GlobalTopK: 2, SessionTopK: 5})
	require.NoError(t, err)

	require.Len(t, idx.filters, 2)
	assert.Equal(t, []string{domain.GlobalCategory}, idx.filters[0].Categories)
	assert.Equal(t, []string{"s1"}, idx.filters[1].Categories)
	assert.Equal(t, []int{2, 5}, idx.topKs)
}

func TestRetriever_GlobalSessionQueriesOnce(t *testing.T) {
	for _, session := range []string{"", domain.GlobalCategory} {
		idx := &mockVectorIndex{}
		r := NewRetriever(idx, time.Second)

		_, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{Session: session})
		require.NoError(t, err)
		assert.Len(t, idx.filters, 1, "session %q", session)
	}
}

func TestRetriever_NoMatches(t *testing.T) {
	r := NewRetriever(&mockVectorIndex{}, time.Second)

	ctx, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContextNoMatches, ctx.Status)
	assert.Equal(t, domain.NoMatchesMessage, ctx.String())
}

func TestRetriever_MergeSortDedupTruncate(t *testing.T) {
	idx := &mockVectorIndex{byCat: map[string][]domain.QueryMatch{
		domain.GlobalCategory: {
			match(0.5, "shared passage", domain.GlobalCategory),
			match(0.3, "global low", domain.GlobalCategory),
			match(0.9, "global high", domain.GlobalCategory),
		},
		"s1": {
			match(0.7, "shared passage", "s1"),
			match(0.6, "session mid", "s1"),
			match(0.1, "session low", "s1"),
		},
	}}
	r := NewRetriever(idx, time.Second)

	ctx, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{
		Session: "s1", GlobalTopK: 3, SessionTopK: 3, Limit: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"global high", "shared passage", "session mid", "global low"}, ctx.Texts())
	// The first occurrence of a duplicate wins, here the higher-scoring session copy.
	assert.Equal(t, "s1", ctx.Passages[1].Category)
}

func TestRetriever_EqualScoresKeepGlobalFirst(t *testing.T) {
	idx := &mockVectorIndex{byCat: map[string][]domain.QueryMatch{
		domain.GlobalCategory: {match(0.5, "global", domain.GlobalCategory)},
		"s1":                  {match(0.5, "session", "s1")},
	}}
	r := NewRetriever(idx, time.Second)

	for i := 0; i < 5; i++ {
		ctx, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{Session: "s1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"global", "session"}, ctx.Texts())
	}
}

func TestRetriever_ScoreThreshold(t *testing.T) {
	idx := &mockVectorIndex{byCat: map[string][]domain.QueryMatch{
		domain.GlobalCategory: {match(0.8, "keep", domain.GlobalCategory), match(0.2, "drop", domain.GlobalCategory)},
	}}
	r := NewRetriever(idx, time.Second)
	threshold := 0.5

	ctx, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{ScoreThreshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ctx.Texts())

	threshold = 0.95
	ctx, err = r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{ScoreThreshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, domain.ContextNoMatches, ctx.Status)
}

func TestRetriever_QueryErrorTimeout(t *testing.T) {
	idx := &mockVectorIndex{queryErr: context.DeadlineExceeded}
	r := NewRetriever(idx, time.Second)

	_, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestRetriever_QueryErrorPassthrough(t *testing.T) {
	boom := errors.New("boom")
	r := NewRetriever(&mockVectorIndex{queryErr: boom}, time.Second)

	_, err := r.Retrieve(context.Background(), []float32{1}, RetrieveOptions{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
}
