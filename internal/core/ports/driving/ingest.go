package driving

import (
	"context"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// IngestService adds uploaded documents to the retrieval store.
type IngestService interface {
	// Ingest extracts, chunks, embeds and stores one file.
	// An empty extraction is reported as Skipped with a nil error.
	Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error)

	// Reset drops every stored passage where the backend supports it.
	Reset(ctx context.Context) error
}

// BootstrapService loads a notes directory into the global partition.
type BootstrapService interface {
	// Bootstrap ingests every regular file in dir, creating dir if missing.
	Bootstrap(ctx context.Context, dir string) (domain.BootstrapResult, error)

	// Watch ingests files created or written in dir until ctx is done.
	Watch(ctx context.Context, dir string) error
}
