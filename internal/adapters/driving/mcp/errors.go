// Package mcp provides an MCP (Model Context Protocol) server adapter for notesrag.
// It lets AI assistants query, ingest and ask about study notes.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// toolError prefixes err with the short user-facing message.
func toolError(err error) error {
	return fmt.Errorf("%s (%w)", domain.UserMessage(err), err)
}
