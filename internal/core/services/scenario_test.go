package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex/local"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/postprocessors"
)

// studyStack wires the real chunker and local index behind the services.
type studyStack struct {
	ingest *IngestService
	query  *QueryService
}

func newStudyStack(t *testing.T, files stubExtractor) studyStack {
	t.Helper()

	s := vectorSettings()
	pipeline := postprocessors.NewDefaultPipeline(s.Chunking)

	emb := newHashEmbedder()
	idx := local.New(emb.Dimensions())

	return studyStack{
		ingest: NewIngestService(files, pipeline, emb, idx, nil, s),
		query:  NewQueryService(emb, idx, nil, s),
	}
}

func TestStudyScenario_PhraseChunkRanksFirst(t *testing.T) {
	stack := newStudyStack(t, stubExtractor{"/notes/biology.txt": studyDocument(90)})
	ctx := context.Background()

	res, err := stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/notes/biology.txt", Global: true})
	require.NoError(t, err)
	require.Equal(t, 3, res.Chunks)
	assert.Equal(t, 3, res.Stored)

	result, err := stack.query.Query(ctx, "photosynthesis chloroplast", "s2")
	require.NoError(t, err)
	require.True(t, result.HasPassages())

	assert.Contains(t, result.Passages[0].Text, "photosynthesis chloroplast")
	for _, p := range result.Passages[1:] {
		assert.NotContains(t, p.Text, "photosynthesis")
	}
}

func TestStudyScenario_SessionIsolation(t *testing.T) {
	private := "quantum entanglement links particle states across any distance instantly"
	stack := newStudyStack(t, stubExtractor{
		"/notes/biology.txt": studyDocument(-1),
		"/uploads/physics.txt": private,
	})
	ctx := context.Background()

	_, err := stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/notes/biology.txt", Global: true})
	require.NoError(t, err)
	_, err = stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/uploads/physics.txt", Session: "s1"})
	require.NoError(t, err)

	// s2 sees the global notes but never s1's private upload.
	other, err := stack.query.Query(ctx, "quantum entanglement", "s2")
	require.NoError(t, err)
	require.True(t, other.HasPassages())
	for _, p := range other.Passages {
		assert.Equal(t, domain.GlobalCategory, p.Category)
		assert.NotContains(t, p.Text, "quantum")
	}

	// s1 gets its own passage first.
	owner, err := stack.query.Query(ctx, "quantum entanglement", "s1")
	require.NoError(t, err)
	require.True(t, owner.HasPassages())
	assert.Equal(t, private, owner.Passages[0].Text)
	assert.Equal(t, "s1", owner.Passages[0].Category)
}

func TestStudyScenario_DedupAcrossPartitions(t *testing.T) {
	text := "mitosis produces two genetically identical daughter cells"
	stack := newStudyStack(t, stubExtractor{"/n/shared.txt": text})
	ctx := context.Background()

	_, err := stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/n/shared.txt", Global: true})
	require.NoError(t, err)
	_, err = stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/n/shared.txt", Session: "s1"})
	require.NoError(t, err)

	result, err := stack.query.Query(ctx, "mitosis", "s1")
	require.NoError(t, err)

	require.Len(t, result.Passages, 1)
	assert.Equal(t, domain.GlobalCategory, result.Passages[0].Category)
}

func TestStudyScenario_RetryDoesNotOverwrite(t *testing.T) {
	stack := newStudyStack(t, stubExtractor{"/n/a.txt": "a short note about mitosis and meiosis"})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := stack.ingest.Ingest(ctx, domain.IngestRequest{Path: "/n/a.txt", Global: true})
		require.NoError(t, err)
	}

	n, err := stack.query.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStudyScenario_KeywordEmptyCorpus(t *testing.T) {
	svc := NewQueryService(nil, nil, memory.NewCorpusStore(), domain.DefaultSettings())

	result, err := svc.Query(context.Background(), "photosynthesis", "s1")
	require.NoError(t, err)
	assert.Equal(t, "no notes uploaded yet", result.String())
	assert.False(t, strings.Contains(result.String(), "\n"))
}
