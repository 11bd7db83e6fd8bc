package prompts

// LLMPrompts holds templates for answering questions over the documentation.
const (
	// AnswerSystemPrompt is the system prompt for every answer request.
	// It instructs the LLM to answer from the numbered context and cite it.
	AnswerSystemPrompt = `<instructions>
You are an internal documentation assistant. Answer the user's question using the numbered context sections provided with the question.
</instructions>

<rules>
1.  Base your answer on the context. Cite the sections you use with their bracketed number, e.g. [1] or [2][3].
2.  Several sections may share one number when they come from the same page.
3.  If the context does not contain enough information, say so plainly instead of guessing.
4.  Be concise and direct. Use Markdown for lists and code.
</rules>`

	// NoContextInstruction is appended to the system prompt when retrieval
	// found nothing usable.
	NoContextInstruction = `<no_context>
No relevant internal documentation was found for this question.
Begin your answer by stating clearly that the internal documentation does not cover this topic.
Only after that disclosure may you answer from general knowledge, and you must not cite any sections.
</no_context>`

	// FallbackCaveatInstruction is appended when only loosely matching
	// context could be found.
	FallbackCaveatInstruction = `<weak_context>
The context below matched the question only loosely. Treat it as suggestive, not definitive.
Tell the user that the answer is based on loosely related documentation and may be incomplete.
</weak_context>`

	// NoContextSection replaces the context block when retrieval is empty.
	NoContextSection = "No relevant documentation was found for this question."

	// InsufficientInformationAnswer replaces an empty completion.
	InsufficientInformationAnswer = "I don't have enough information to answer that question."

	// QuestionTemplate wraps the assembled context and the question.
	// Placeholders: context, question.
	QuestionTemplate = `## Context

%s

## Question

%s`
)
