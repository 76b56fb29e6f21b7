// Package events publishes chat activity over NATS. The service runs
// fine without it; publish failures are logged, never surfaced to users.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectMessageStored  = "astra.chat.message.stored"
	SubjectChatCleared    = "astra.chat.cleared"
	SubjectSessionStarted = "astra.session.started"
)

// MessageStored is emitted after a message is persisted.
type MessageStored struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	HasCode   bool   `json:"has_code"`
	Timestamp string `json:"timestamp"`
}

// ChatCleared is emitted after a user's history is wiped.
type ChatCleared struct {
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// SessionStarted is emitted when a session loads its history.
type SessionStarted struct {
	UserID       string `json:"user_id"`
	MessageCount int    `json:"message_count"`
	Timestamp    string `json:"timestamp"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

func (p *Publisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}

// Now is the timestamp format used in event payloads.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
