package services

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"math"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// captureLogs routes logger output into a buffer until the test ends.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

// --- Mock implementations ---

// hashEmbedder maps each lower-cased token to a bucket, giving texts that
// share words a positive cosine similarity.
type hashEmbedder struct {
	dims      int
	batchErr  error
	failTexts map[string]bool

	mu         sync.Mutex
	batchCalls int
	itemCalls  int
	queries    []string
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 256}
}

func (e *hashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.itemCalls++
	e.mu.Unlock()
	if e.failTexts[text] {
		return nil, errors.New("input rejected")
	}
	return e.vector(text), nil
}

func (e *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queries = append(e.queries, text)
	e.mu.Unlock()
	return e.vector(text), nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *hashEmbedder) Dimensions() int              { return e.dims }
func (e *hashEmbedder) ModelName() string            { return "hash" }
func (e *hashEmbedder) Ping(_ context.Context) error { return nil }
func (e *hashEmbedder) Close() error                 { return nil }

// stubExtractor returns fixed text per path.
type stubExtractor map[string]string

func (s stubExtractor) Extract(_ context.Context, path string) string {
	return s[path]
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu sync.Mutex

	dims      int
	count     int
	countErr  error
	queryErr  error
	upsertErr map[int]error // by call number
	byCat     map[string][]domain.QueryMatch

	removeErr error

	upserts []int
	filters []domain.CategoryFilter
	topKs   []int
	resets  int
	removed []removeCall
}

// removeCall records a RemoveSource call and how many upserts preceded it.
type removeCall struct {
	category, source string
	afterUpserts     int
}

var (
	_ driven.VectorIndex   = (*mockVectorIndex)(nil)
	_ driven.SourceRemover = (*mockVectorIndex)(nil)
)

func (m *mockVectorIndex) Upsert(_ context.Context, records []domain.VectorRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.upserts)
	m.upserts = append(m.upserts, len(records))
	if err := m.upsertErr[call]; err != nil {
		return 0, err
	}
	m.count += len(records)
	return len(records), nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ []float32, topK int, filter domain.CategoryFilter) ([]domain.QueryMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	m.topKs = append(m.topKs, topK)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []domain.QueryMatch
	for _, c := range filter.Categories {
		out = append(out, m.byCat[c]...)
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *mockVectorIndex) Dimensions() int { return m.dims }

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

func (m *mockVectorIndex) Reset(_ context.Context) error {
	m.resets++
	m.count = 0
	return nil
}

func (m *mockVectorIndex) RemoveSource(_ context.Context, category, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, removeCall{category: category, source: source, afterUpserts: len(m.upserts)})
	return m.removeErr
}

func (m *mockVectorIndex) Close() error { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

var studyVocab = []string{
	"cells", "divide", "through", "mitosis", "during", "growth", "and", "repair",
	"while", "meiosis", "produces", "gametes", "for", "sexual", "reproduction",
	"in", "complex", "organisms", "every", "stage",
}

// studyDocument builds a 1200 character document with
// "photosynthesis chloroplast" at word offset phraseAt (if non-negative).
func studyDocument(phraseAt int) string {
	var words []string
	for i := 0; len(strings.Join(words, " ")) < 1220; i++ {
		if len(words) == phraseAt {
			words = append(words, "photosynthesis", "chloroplast")
		}
		words = append(words, studyVocab[i%len(studyVocab)])
	}
	return strings.Join(words, " ")[:1200]
}

func vectorSettings() *domain.Settings {
	s := &domain.Settings{
		Embedding: domain.EmbeddingSettings{Provider: domain.AIProviderOllama},
		Index:     domain.IndexSettings{Backend: domain.IndexBackendLocal},
	}
	s.ApplyDefaults()
	return s
}
