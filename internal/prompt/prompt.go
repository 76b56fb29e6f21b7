// Package prompt renders the generation prompt: a persona preamble, a
// bounded window of recent conversation, and the new question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/astra-labs/astra/internal/chat"
)

// ContextWindow is how many trailing messages are included as context.
const ContextWindow = 10

const template = `You are Astra, an AI learning assistant. Your purpose is to help students with their studies, homework, and understanding complex topics.

Previous conversation for context:
%s

Current question: %s

Provide a clear, direct, and helpful response. If the question is about a specific subject, include relevant explanations and examples. If it's a coding question, provide code examples with explanations.

Remember:
- Be concise but thorough
- Use simple language
- Break down complex concepts
- Provide examples when helpful
- If you're not sure about something, say so
- Stay focused on the academic/educational context`

// Compose builds the prompt from the prior conversation and the new
// question. Only the last ContextWindow messages appear in the context
// block, oldest of that slice first; the question is embedded verbatim.
func Compose(history []chat.Message, question string) string {
	return fmt.Sprintf(template, Context(history), question)
}

// Context renders the trailing window as "User: ..." / "Assistant: ..."
// lines. An empty history renders as an empty block.
func Context(history []chat.Message) string {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, speaker(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func speaker(role chat.Role) string {
	if role == chat.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
