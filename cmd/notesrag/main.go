// Command notesrag ingests study notes and answers questions from them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/notesrag/internal/app"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Set via -ldflags "-X main.version=1.2.3".
var version = ""

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetConfigValidator(ai.NewConfigValidator())
	cli.SetConfigStoreFactory(func(path string) (driven.ConfigStore, error) {
		return file.NewConfigStore(path)
	})
	cli.SetServiceFactory(buildServices)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func buildServices(ctx context.Context, store driven.ConfigStore) (*cli.Services, func(), error) {
	a, err := app.Build(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	return &cli.Services{
		Ingest:      a.Ingest,
		Query:       a.Query,
		Answer:      a.Answer,
		Bootstrap:   a.Bootstrap,
		Settings:    a.Settings,
		IndexReason: a.IndexReason,
		Warnings:    a.Warnings,
	}, a.Close, nil
}
