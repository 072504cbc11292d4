package mcp

import (
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query retrieves context for questions.
	Query driving.QueryService

	// Ingest adds files to the store. Optional; ingest_notes is not
	// registered without it.
	Ingest driving.IngestService

	// Answer generates answers. Optional; ask_notes is not registered
	// without it.
	Answer driving.AnswerService

	// Settings backs the status resource. Optional.
	Settings *domain.Settings

	// IndexReason explains a disconnected vector backend in the status resource.
	IndexReason string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
