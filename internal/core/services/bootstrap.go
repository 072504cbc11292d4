package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure Bootstrapper implements the interface.
var _ driving.BootstrapService = (*Bootstrapper)(nil)

// Bootstrapper loads a notes directory into the global partition.
type Bootstrapper struct {
	ingest  driving.IngestService
	watcher driven.Watcher
}

// NewBootstrapper creates a bootstrapper. The watcher may be nil, in which
// case Watch returns an error.
func NewBootstrapper(ingest driving.IngestService, watcher driven.Watcher) *Bootstrapper {
	return &Bootstrapper{ingest: ingest, watcher: watcher}
}

// Bootstrap ingests every regular file directly inside dir as a global
// note. A missing directory is created. Per-file failures are counted and
// logged; only directory errors are returned.
func (b *Bootstrapper) Bootstrap(ctx context.Context, dir string) (domain.BootstrapResult, error) {
	logger.Section("Bootstrap")

	var result domain.BootstrapResult

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("create notes directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read notes directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		logger.Info("Adding preexisting note: %s", entry.Name())
		b.ingestOne(ctx, path, &result)
	}

	logger.Info("Bootstrap complete: %d files, %d chunks stored", result.Files, result.Stored)
	return result, nil
}

// Watch ingests files created or written in dir until ctx is cancelled.
func (b *Bootstrapper) Watch(ctx context.Context, dir string) error {
	if b.watcher == nil {
		return errors.New("watcher not configured")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create notes directory: %w", err)
	}

	logger.Info("Watching %s for new notes", dir)
	return b.watcher.Watch(ctx, dir, func(path string) {
		var result domain.BootstrapResult
		b.ingestOne(ctx, path, &result)
	})
}

func (b *Bootstrapper) ingestOne(ctx context.Context, path string, result *domain.BootstrapResult) {
	result.Files++

	// A re-run or a write event supersedes what the file stored before.
	res, err := b.ingest.Ingest(ctx, domain.IngestRequest{Path: path, Global: true, Replace: true})
	switch {
	case err != nil:
		result.Failed++
		logger.Warn("Failed to ingest %s: %v", filepath.Base(path), err)
	case res.Skipped:
		result.Skipped++
	default:
		result.Stored += res.Stored
	}
}
