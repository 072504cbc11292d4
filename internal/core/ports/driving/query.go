package driving

import (
	"context"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// QueryService retrieves context for a question.
type QueryService interface {
	// Query returns the ranked passages visible to session.
	// An empty session sees only the global partition.
	Query(ctx context.Context, text, session string) (domain.Context, error)
}

// AnswerService answers questions from retrieved context.
type AnswerService interface {
	// Ask retrieves context for question and generates an answer.
	Ask(ctx context.Context, question, session string) (domain.Answer, error)
}
