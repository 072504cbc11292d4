package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// KeywordSearch ranks corpus chunks by the number of distinct lower-cased
// whitespace tokens they share with query. Ties keep corpus order.
//
// When no chunk shares a token, the first limit chunks are returned so the
// generator always receives some context. An empty corpus yields the
// "no notes uploaded yet" context. Scores are raw overlap counts and are
// never compared against a vector score threshold.
func KeywordSearch(query string, corpus []domain.Chunk, limit int) domain.Context {
	if len(corpus) == 0 {
		return domain.NoNotesContext()
	}
	if limit <= 0 {
		limit = domain.DefaultResultLimit
	}

	terms := tokenSet(query)

	type scored struct {
		chunk domain.Chunk
		score int
	}
	var hits []scored
	for _, c := range corpus {
		score := 0
		for tok := range tokenSet(c.Text) {
			if _, ok := terms[tok]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{chunk: c, score: score})
		}
	}

	if len(hits) == 0 {
		if limit > len(corpus) {
			limit = len(corpus)
		}
		passages := make([]domain.Passage, limit)
		for i, c := range corpus[:limit] {
			passages[i] = passageFromChunk(c, 0)
		}
		return domain.Context{Status: domain.ContextOK, Passages: passages}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	passages := make([]domain.Passage, len(hits))
	for i, h := range hits {
		passages[i] = passageFromChunk(h.chunk, float64(h.score))
	}
	return domain.Context{Status: domain.ContextOK, Passages: passages}
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func passageFromChunk(c domain.Chunk, score float64) domain.Passage {
	return domain.Passage{
		Text:     c.Text,
		Source:   c.Source,
		Category: c.Category,
		Score:    score,
	}
}
