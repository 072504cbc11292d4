package mcp

import (
	"context"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result  domain.Context
	err     error
	text    string
	session string
}

func (m *mockQueryService) Query(_ context.Context, text, session string) (domain.Context, error) {
	m.text = text
	m.session = session
	return m.result, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result domain.IngestResult
	err    error
	req    domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockIngestService) Reset(_ context.Context) error {
	return m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _, _ string) (domain.Answer, error) {
	return m.answer, m.err
}
