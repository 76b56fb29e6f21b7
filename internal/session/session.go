// Package session owns per-user conversation state and orchestrates the
// history store, prompt composition, the generation endpoint, and reply
// parsing.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/astra-labs/astra/internal/chat"
	"github.com/astra-labs/astra/internal/events"
	"github.com/astra-labs/astra/internal/gemini"
	"github.com/astra-labs/astra/internal/history"
	"github.com/astra-labs/astra/internal/prompt"
	"github.com/astra-labs/astra/internal/reply"
)

// ErrBusy is returned when a submit arrives while a load or generation
// round-trip is still outstanding. Callers resubmit manually.
var ErrBusy = errors.New("session: operation already in progress")

// User-visible failure strings. The latest one replaces any prior error
// and is cleared at the start of the next attempt.
const (
	errLoadFailed     = "Failed to load chat history. Please try again later."
	errSaveFailed     = "Failed to save message"
	errClearFailed    = "Failed to clear chat history"
	errGenerateFailed = "Failed to get response. Please try again."
)

// Manager holds one user's session. A userID of "" means anonymous: the
// state stays empty and the store is never touched.
type Manager struct {
	userID string
	store  *history.Adapter
	llm    *gemini.Client
	events *events.Publisher // optional
	logger *slog.Logger

	mu    sync.Mutex
	state chat.State
}

func New(userID string, store *history.Adapter, llm *gemini.Client, pub *events.Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		userID: userID,
		store:  store,
		llm:    llm,
		events: pub,
		logger: logger,
	}
}

// State returns a snapshot safe to read without further locking.
func (m *Manager) State() chat.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Start loads the user's persisted history into the session. Anonymous
// sessions just reset to empty.
func (m *Manager) Start(ctx context.Context) error {
	if m.userID == "" {
		m.mu.Lock()
		m.state = chat.State{}
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.state.Loading = true
	m.state.Err = ""
	m.mu.Unlock()

	msgs, err := m.store.Load(ctx, m.userID, 0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = false
	if err != nil {
		m.logger.Error("failed to load chat history", "user_id", m.userID, "error", err)
		m.state.Err = errLoadFailed
		return err
	}
	m.state.Messages = msgs
	m.publish(events.SubjectSessionStarted, events.SessionStarted{
		UserID:       m.userID,
		MessageCount: len(msgs),
		Timestamp:    events.Now(),
	})
	return nil
}

// Submit runs one question through the full round trip: optimistic local
// append, persist, generate, parse, append + persist the assistant turn.
// Blank questions and anonymous sessions are no-ops. The user message is
// kept locally even when persisting it fails.
func (m *Manager) Submit(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" || m.userID == "" {
		return nil
	}

	userMsg := chat.NewUserMessage(question)

	m.mu.Lock()
	if m.state.Loading {
		m.mu.Unlock()
		return ErrBusy
	}
	// The prompt context is the conversation before this question; the
	// question itself travels separately in the template.
	window := make([]chat.Message, len(m.state.Messages))
	copy(window, m.state.Messages)
	m.state.Messages = append(m.state.Messages, userMsg)
	m.state.Loading = true
	m.mu.Unlock()

	m.persist(ctx, userMsg)

	// A save failure above is non-fatal; the generation attempt starts
	// with a clean error slate either way.
	m.mu.Lock()
	m.state.Err = ""
	m.mu.Unlock()

	text, err := m.llm.GenerateContent(ctx, prompt.Compose(window, question))
	if err != nil {
		m.logger.Error("generation failed", "user_id", m.userID, "error", err)
		m.mu.Lock()
		m.state.Loading = false
		m.state.Err = errGenerateFailed
		m.mu.Unlock()
		return err
	}

	parsed := reply.Parse(text)
	assistantMsg := chat.NewAssistantMessage(parsed.Content, parsed.Code)

	m.mu.Lock()
	m.state.Messages = append(m.state.Messages, assistantMsg)
	m.state.Loading = false
	m.mu.Unlock()

	m.persist(ctx, assistantMsg)
	return nil
}

// Clear wipes the user's history. On failure the local messages stay and
// the error surfaces in the state.
func (m *Manager) Clear(ctx context.Context) error {
	if m.userID == "" {
		return nil
	}

	m.mu.Lock()
	m.state.Loading = true
	m.state.Err = ""
	m.mu.Unlock()

	err := m.store.Clear(ctx, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = false
	if err != nil {
		m.logger.Error("failed to clear chat", "user_id", m.userID, "error", err)
		m.state.Err = errClearFailed
		return err
	}
	m.state.Messages = nil
	m.publish(events.SubjectChatCleared, events.ChatCleared{
		UserID:    m.userID,
		Timestamp: events.Now(),
	})
	return nil
}

// Export serialises the conversation snapshot. No store or network access.
func (m *Manager) Export() ([]byte, error) {
	return chat.ExportMessages(m.State().Messages)
}

// persist writes one message through the history adapter. Failures are
// logged and recorded as a non-fatal error; the optimistic local append
// is never rolled back so the conversation stays readable.
func (m *Manager) persist(ctx context.Context, msg chat.Message) {
	if err := m.store.Append(ctx, m.userID, msg); err != nil {
		m.logger.Warn("failed to save message", "user_id", m.userID, "message_id", msg.ID, "error", err)
		m.mu.Lock()
		m.state.Err = errSaveFailed
		m.mu.Unlock()
		return
	}
	m.publish(events.SubjectMessageStored, events.MessageStored{
		UserID:    m.userID,
		MessageID: msg.ID,
		Role:      string(msg.Role),
		HasCode:   msg.Code != nil,
		Timestamp: events.Now(),
	})
}

func (m *Manager) publish(subject string, data any) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(subject, data); err != nil {
		m.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
