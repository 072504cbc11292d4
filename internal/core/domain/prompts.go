package domain

// Default answer prompts. The user template takes the rendered context and
// the question, in that order.
const (
	AnswerSystemPrompt = "You are a knowledgeable study assistant. Answer clearly and in exam-friendly descriptive style. " +
		"Use the context provided to answer questions accurately."

	AnswerUserPromptTemplate = "Context from notes:\n%s\n\nQuestion: %s\n\nProvide a clear, descriptive answer based on the context above."
)
