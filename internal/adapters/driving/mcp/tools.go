package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// QueryInput is the input schema for the query_notes tool.
type QueryInput struct {
	Query   string `json:"query" jsonschema:"the question or search text"`
	Session string `json:"session,omitempty" jsonschema:"session id whose private notes are also searched"`
}

// QueryOutput is the output schema for the query_notes tool.
type QueryOutput struct {
	// Status is ok, no_notes or no_matches.
	Status   string          `json:"status"`
	Context  string          `json:"context"`
	Passages []PassageOutput `json:"passages"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// IngestInput is the input schema for the ingest_notes tool.
type IngestInput struct {
	Path    string `json:"path" jsonschema:"path of the file to ingest"`
	Session string `json:"session,omitempty" jsonschema:"owner session for private notes"`
	Global  bool   `json:"global,omitempty" jsonschema:"store in the shared partition"`
	Replace bool   `json:"replace,omitempty" jsonschema:"drop passages stored earlier from the same file"`
}

// IngestOutput is the output schema for the ingest_notes tool.
type IngestOutput struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Chunks   int    `json:"chunks"`
	Stored   int    `json:"stored"`
	Skipped  bool   `json:"skipped"`
}

// AskInput is the input schema for the ask_notes tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the notes"`
	Session  string `json:"session,omitempty" jsonschema:"session id whose private notes are also used"`
}

// AskOutput is the output schema for the ask_notes tool.
type AskOutput struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_notes",
		Description: "Retrieve the study-note passages most relevant to a question",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_notes",
			Description: "Ingest a PDF, text or markdown file into the notes store",
		}, s.handleIngest)
	}

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask_notes",
			Description: "Answer a question using the retrieved study notes",
		}, s.handleAsk)
	}
}

// handleQuery handles the query_notes tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.Query.Query(ctx, input.Query, input.Session)
	if err != nil {
		return nil, QueryOutput{}, toolError(err)
	}

	output := QueryOutput{
		Status:   string(result.Status),
		Context:  result.String(),
		Passages: make([]PassageOutput, len(result.Passages)),
	}
	for i, p := range result.Passages {
		output.Passages[i] = PassageOutput{
			Text:     p.Text,
			Source:   p.Source,
			Category: p.Category,
			Score:    p.Score,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest_notes tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Ingest.Ingest(ctx, domain.IngestRequest{
		Path:    input.Path,
		Session: input.Session,
		Global:  input.Global,
		Replace: input.Replace,
	})
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}

	return nil, IngestOutput{
		Source:   result.Source,
		Category: result.Category,
		Chunks:   result.Chunks,
		Stored:   result.Stored,
		Skipped:  result.Skipped,
	}, nil
}

// handleAsk handles the ask_notes tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, input.Session)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Context: answer.Context.String(),
	}, nil
}
