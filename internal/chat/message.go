package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CodeBlock is a single fenced snippet extracted from an assistant reply.
type CodeBlock struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Message is one conversational turn. Code is non-nil only on assistant
// messages whose reply carried a fenced block; user messages never have it.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Code      *CodeBlock `json:"code,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewUserMessage builds a user turn with a fresh id and the current time.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantMessage builds an assistant turn. code may be nil when the
// reply contained no fenced block.
func NewAssistantMessage(content string, code *CodeBlock) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}
