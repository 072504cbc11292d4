package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func corpusOf(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Text: t, Source: "notes.txt", Category: domain.GlobalCategory, Position: i}
	}
	return out
}

func TestKeywordSearch_EmptyCorpus(t *testing.T) {
	ctx := KeywordSearch("anything", nil, 3)

	assert.Equal(t, domain.ContextNoNotes, ctx.Status)
	assert.Equal(t, domain.NoNotesMessage, ctx.String())
}

func TestKeywordSearch_RanksByOverlap(t *testing.T) {
	corpus := corpusOf(
		"plants need light",
		"mitosis produces identical cells",
		"mitosis and meiosis both divide cells",
	)

	ctx := KeywordSearch("How do cells divide in Mitosis", corpus, 3)

	require.Equal(t, domain.ContextOK, ctx.Status)
	require.Len(t, ctx.Passages, 2)
	assert.Equal(t, "mitosis and meiosis both divide cells", ctx.Passages[0].Text)
	assert.Equal(t, 3.0, ctx.Passages[0].Score)
	assert.Equal(t, "mitosis produces identical cells", ctx.Passages[1].Text)
}

func TestKeywordSearch_TiesKeepCorpusOrder(t *testing.T) {
	corpus := corpusOf("alpha one", "alpha two", "alpha three")

	ctx := KeywordSearch("alpha", corpus, 2)

	require.Len(t, ctx.Passages, 2)
	assert.Equal(t, "alpha one", ctx.Passages[0].Text)
	assert.Equal(t, "alpha two", ctx.Passages[1].Text)
}

func TestKeywordSearch_NoOverlapReturnsFirstChunks(t *testing.T) {
	corpus := corpusOf("first", "second", "third", "fourth")

	ctx := KeywordSearch("unrelated", corpus, 3)

	require.Equal(t, domain.ContextOK, ctx.Status)
	assert.Equal(t, []string{"first", "second", "third"}, ctx.Texts())
}

func TestKeywordSearch_NoOverlapSmallCorpus(t *testing.T) {
	ctx := KeywordSearch("unrelated", corpusOf("only"), 3)

	assert.Equal(t, []string{"only"}, ctx.Texts())
}

func TestKeywordSearch_DefaultLimit(t *testing.T) {
	corpus := corpusOf("a x", "b x", "c x", "d x", "e x", "f x")

	ctx := KeywordSearch("x", corpus, 0)

	assert.Len(t, ctx.Passages, domain.DefaultResultLimit)
}
