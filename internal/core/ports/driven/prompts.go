package driven

// Prompt names understood by PromptStore.
const (
	// PromptAnswerSystem is the system message of answer generation.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser is the user message template. It takes two %s
	// placeholders: the retrieved context, then the question.
	PromptAnswerUser = "answer_user"
)

// PromptStore loads customisable LLM prompts.
type PromptStore interface {
	// Load returns the prompt template for name.
	Load(name string) (string, error)
}
