// Package tui provides an interactive chat interface over the notes corpus.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Query retrieves context passages for a question.
	Query driving.QueryService

	// Answer generates grounded answers. When nil the TUI shows
	// retrieved passages only.
	Answer driving.AnswerService

	// Session scopes retrieval to a session corpus in addition to the
	// global one. Empty means global only.
	Session string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, answer driving.AnswerService) *Ports {
	return &Ports{
		Query:  query,
		Answer: answer,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
