package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

type mockIngestService struct {
	mu       sync.Mutex
	requests []domain.IngestRequest
	errs     map[string]error
	skipped  map[string]bool
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	category, err := domain.ResolveCategory(req.Session, req.Global)
	if err != nil {
		return domain.IngestResult{}, err
	}
	res := domain.IngestResult{Source: domain.SourceName(req.Path), Category: category}
	if err := m.errs[req.Path]; err != nil {
		return res, err
	}
	if m.skipped[req.Path] {
		res.Skipped = true
		return res, nil
	}
	res.Chunks, res.Stored = 3, 3
	return res, nil
}

func (m *mockIngestService) Reset(context.Context) error {
	return nil
}

type mockQueryService struct {
	result   domain.Context
	err      error
	question string
	session  string
}

func (m *mockQueryService) Query(_ context.Context, text, session string) (domain.Context, error) {
	m.question, m.session = text, session
	return m.result, m.err
}

type mockAnswerService struct {
	answer   domain.Answer
	err      error
	question string
	session  string
}

func (m *mockAnswerService) Ask(_ context.Context, question, session string) (domain.Answer, error) {
	m.question, m.session = question, session
	return m.answer, m.err
}

type mockBootstrapService struct {
	result     domain.BootstrapResult
	err        error
	dirs       []string
	watched    string
	watchCalls int
}

func (m *mockBootstrapService) Bootstrap(_ context.Context, dir string) (domain.BootstrapResult, error) {
	m.dirs = append(m.dirs, dir)
	return m.result, m.err
}

func (m *mockBootstrapService) Watch(_ context.Context, dir string) error {
	m.watched = dir
	m.watchCalls++
	return nil
}

type mockValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embeddingErr }
func (m *mockValidator) ValidateLLM(*domain.GenerationSettings) error      { return m.llmErr }

var (
	_ driving.IngestService     = (*mockIngestService)(nil)
	_ driving.QueryService      = (*mockQueryService)(nil)
	_ driving.AnswerService     = (*mockAnswerService)(nil)
	_ driving.BootstrapService  = (*mockBootstrapService)(nil)
	_ driven.AIConfigValidator = (*mockValidator)(nil)
)

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	query     *mockQueryService
	answer    *mockAnswerService
	bootstrap *mockBootstrapService
	validator *mockValidator
	settings  *domain.Settings
	config    *memory.ConfigStore
}

func sampleContext() domain.Context {
	return domain.Context{
		Status: domain.ContextOK,
		Passages: []domain.Passage{
			{Text: "Mitochondria produce ATP.", Source: "biology.md", Category: domain.GlobalCategory, Score: 0.91},
			{Text: "Week 3 covers respiration.", Source: "week3.txt", Category: "s1", Score: 0.72},
		},
	}
}

// setupTestServices installs mock services and returns them with a cleanup
// func that restores package state.
func setupTestServices() (*testServices, func()) {
	settings := domain.DefaultSettings()
	ts := &testServices{
		ingest:    &mockIngestService{errs: map[string]error{}, skipped: map[string]bool{}},
		query:     &mockQueryService{result: sampleContext()},
		answer:    &mockAnswerService{answer: domain.Answer{Text: "ATP comes from mitochondria.", Context: sampleContext()}},
		bootstrap: &mockBootstrapService{result: domain.BootstrapResult{Files: 2, Stored: 5}},
		validator: &mockValidator{},
		settings:  settings,
		config:    memory.NewConfigStoreWith(settings),
	}

	SetServices(&Services{
		Ingest:    ts.ingest,
		Query:     ts.query,
		Answer:    ts.answer,
		Bootstrap: ts.bootstrap,
		Settings:  ts.settings,
	})
	SetConfigStore(ts.config)
	SetConfigValidator(ts.validator)

	return ts, resetCLIState
}

// resetCLIState clears injected dependencies and flag values between tests.
func resetCLIState() {
	SetServices(nil)
	SetConfigStore(nil)
	SetConfigValidator(nil)
	SetConfigStoreFactory(nil)
	SetServiceFactory(nil)
	Shutdown()

	verbose, configPath = false, ""
	ingestSession, ingestGlobal, ingestReplace = "", false, false
	querySession, queryJSON = "", false
	askSession, askShowContext = "", false
	chatSession = ""
	watchSkipBootstrap = false
	versionShort = false

	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
