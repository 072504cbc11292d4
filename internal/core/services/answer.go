package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions grounded on retrieved context.
type AnswerService struct {
	query       driving.QueryService
	llm         driven.LLMService
	promptStore driven.PromptStore

	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewAnswerService creates a new answer service. A nil llm makes Ask
// return domain.ErrGeneratorUnavailable.
func NewAnswerService(query driving.QueryService, llm driven.LLMService, settings domain.GenerationSettings) *AnswerService {
	return &AnswerService{
		query:       query,
		llm:         llm,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxTokens,
		timeout:     settings.Timeout(),
	}
}

// Ask retrieves context and generates an answer. Sentinel contexts are
// passed through to the generator unchanged so it can tell the user there
// is nothing to go on.
func (s *AnswerService) Ask(ctx context.Context, question, session string) (domain.Answer, error) {
	if s.llm == nil {
		return domain.Answer{}, domain.ErrGeneratorUnavailable
	}

	retrieved, err := s.query.Query(ctx, question, session)
	if err != nil {
		return domain.Answer{}, err
	}

	logger.Section("Answer Generation")
	logger.Debug("Model: %s, context status: %s", s.llm.ModelName(), retrieved.Status)

	messages := []driven.ChatMessage{
		{Role: "system", Content: s.loadPrompt(driven.PromptAnswerSystem, domain.AnswerSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(s.userTemplate(), retrieved.String(), strings.TrimSpace(question))},
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.Chat(genCtx, messages, driven.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return domain.Answer{Context: retrieved}, fmt.Errorf("generate: %w", domain.TimeoutError("generate", err))
	}

	return domain.Answer{Text: strings.TrimSpace(text), Context: retrieved}, nil
}

// SetPromptStore sets the store for customised prompts.
// If not set, the service uses the built-in prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *AnswerService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// userTemplate rejects customised templates without both placeholders.
func (s *AnswerService) userTemplate() string {
	tmpl := s.loadPrompt(driven.PromptAnswerUser, domain.AnswerUserPromptTemplate)
	if strings.Count(tmpl, "%s") != 2 {
		logger.Warn("Prompt %s needs two %%s placeholders, using the default", driven.PromptAnswerUser)
		return domain.AnswerUserPromptTemplate
	}
	return tmpl
}
