package chat

import (
	"encoding/json"
	"time"
)

type exportedMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ExportMessages serialises a conversation to a JSON array of
// {role, content, code, timestamp} objects in display order, timestamps
// as ISO-8601 strings. Pure transformation, no I/O.
func ExportMessages(msgs []Message) ([]byte, error) {
	out := make([]exportedMessage, 0, len(msgs))
	for _, m := range msgs {
		em := exportedMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		}
		if m.Code != nil {
			em.Code = m.Code.Code
		}
		out = append(out, em)
	}
	return json.MarshalIndent(out, "", "  ")
}
