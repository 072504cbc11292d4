package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	QueryFunc func(ctx context.Context, text, session string) (domain.Context, error)
}

func (m *MockQueryService) Query(ctx context.Context, text, session string) (domain.Context, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, text, session)
	}
	return domain.NoNotesContext(), nil
}

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct {
	AskFunc func(ctx context.Context, question, session string) (domain.Answer, error)
}

func (m *MockAnswerService) Ask(ctx context.Context, question, session string) (domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, session)
	}
	return domain.Answer{Context: domain.NoNotesContext()}, nil
}

var (
	_ driving.QueryService  = (*MockQueryService)(nil)
	_ driving.AnswerService = (*MockAnswerService)(nil)
)

func TestNewPorts(t *testing.T) {
	query := &MockQueryService{}
	answer := &MockAnswerService{}

	ports := NewPorts(query, answer)

	assert.Equal(t, query, ports.Query)
	assert.Equal(t, answer, ports.Answer)
	assert.Empty(t, ports.Session)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		err   error
	}{
		{"query and answer", NewPorts(&MockQueryService{}, &MockAnswerService{}), nil},
		{"query only", &Ports{Query: &MockQueryService{}}, nil},
		{"missing query", &Ports{Answer: &MockAnswerService{}}, ErrMissingQueryService},
		{"empty", &Ports{}, ErrMissingQueryService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
