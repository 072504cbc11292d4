// Package app constructs the application object graph from configuration.
//
// Every store is created here and passed to the services explicitly.
// Nothing is loaded at import time; the notes directory is only read when
// the caller invokes Bootstrap.
package app

import (
	"context"
	"fmt"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/watcher"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/services"
	"github.com/custodia-labs/notesrag/internal/extractors"
	"github.com/custodia-labs/notesrag/internal/logger"
	"github.com/custodia-labs/notesrag/internal/postprocessors"
)

// App holds the wired services.
type App struct {
	Settings  *domain.Settings
	Config    driven.ConfigStore
	Ingest    *services.IngestService
	Query     *services.QueryService
	Answer    *services.AnswerService
	Bootstrap *services.Bootstrapper
	Validator *ai.ConfigValidator

	// IndexReason explains why a vector backend is not connected.
	IndexReason string
	// Warnings lists non-fatal startup issues.
	Warnings []string

	backends *ai.InitResult
}

type options struct {
	runner    driven.CommandRunner
	watcher   driven.Watcher
	promptDir string
}

// Option configures Build.
type Option func(*options)

// WithCommandRunner sets the runner used by the PDF extractor.
func WithCommandRunner(runner driven.CommandRunner) Option {
	return func(o *options) {
		o.runner = runner
	}
}

// WithWatcher replaces the fsnotify directory watcher.
func WithWatcher(w driven.Watcher) Option {
	return func(o *options) {
		o.watcher = w
	}
}

// WithPromptDir sets the prompt template directory.
// Defaults to ~/.notesrag/prompts.
func WithPromptDir(dir string) Option {
	return func(o *options) {
		o.promptDir = dir
	}
}

// Build loads settings from store and wires every service. Unreachable
// backends do not fail the build; the affected services report
// domain.ErrBackendUnavailable or domain.ErrGeneratorUnavailable.
func Build(ctx context.Context, store driven.ConfigStore, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.watcher == nil {
		o.watcher = watcher.New()
	}

	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pipeline := postprocessors.NewDefaultPipeline(settings.Chunking)

	logger.Section("Startup")
	logger.Debug("Index backend: %s", settings.Index.Backend.Description())
	backends := ai.Init(ctx, settings)
	if backends.IndexReason != "" {
		logger.Warn("Vector index not connected: %s", backends.IndexReason)
	}

	registry := extractors.NewDefaultRegistry(o.runner)
	corpus := memory.NewCorpusStore()

	ingest := services.NewIngestService(
		registry,
		pipeline,
		backends.EmbeddingService,
		backends.VectorIndex,
		corpus,
		settings,
	)
	query := services.NewQueryService(backends.EmbeddingService, backends.VectorIndex, corpus, settings)
	answer := services.NewAnswerService(query, backends.LLMService, settings.Generation)

	prompts, err := file.NewPromptStore(o.promptDir)
	if err != nil {
		logger.Warn("Using built-in prompts: %v", err)
	} else {
		answer.SetPromptStore(prompts)
	}

	return &App{
		Settings:    settings,
		Config:      store,
		Ingest:      ingest,
		Query:       query,
		Answer:      answer,
		Bootstrap:   services.NewBootstrapper(ingest, o.watcher),
		Validator:   ai.NewConfigValidator(),
		IndexReason: backends.IndexReason,
		Warnings:    backends.Warnings,
		backends:    backends,
	}, nil
}

// Close releases backend resources.
func (a *App) Close() {
	if a.backends != nil {
		a.backends.Close()
	}
}
