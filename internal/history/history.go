// Package history adapts the document store to the chat domain: append
// one message, load a user's recent conversation oldest-first, wipe it.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/astra-labs/astra/internal/chat"
	"github.com/astra-labs/astra/internal/docstore"
)

// DefaultLimit bounds a history load when the caller does not specify one.
const DefaultLimit = 50

type Adapter struct {
	store  docstore.Store
	limit  int
	logger *slog.Logger
}

// New builds an adapter over store. limit bounds history loads when the
// caller passes no explicit maximum; non-positive values fall back to
// DefaultLimit.
func New(store docstore.Store, limit int, logger *slog.Logger) *Adapter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Adapter{store: store, limit: limit, logger: logger}
}

// Append persists one message for userID. Optional code/language fields
// are written only when the message carries a code block.
func (a *Adapter) Append(ctx context.Context, userID string, msg chat.Message) error {
	rec := docstore.Record{
		ID:        msg.ID,
		UserID:    userID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	if msg.Code != nil {
		rec.Code = msg.Code.Code
		rec.Language = msg.Code.Language
	}
	if err := a.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Load returns up to max messages for userID, oldest first. The primary
// path is a single filtered+ordered+limited query; if the store cannot
// serve that form it retries filter-only and sorts ascending in memory.
func (a *Adapter) Load(ctx context.Context, userID string, max int) ([]chat.Message, error) {
	if max <= 0 {
		max = a.limit
	}

	recs, err := a.store.Query(ctx, docstore.Query{
		UserID:           userID,
		OrderByTimestamp: true,
		Limit:            max,
	})
	if errors.Is(err, docstore.ErrPreconditionFailed) {
		a.logger.Warn("ordered history query unsupported, falling back", "user_id", userID)
		recs, err = a.store.Query(ctx, docstore.Query{UserID: userID, Limit: max})
		if err != nil {
			return nil, fmt.Errorf("load history (fallback): %w", err)
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Timestamp.Before(recs[j].Timestamp)
		})
	} else if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	msgs := make([]chat.Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, toMessage(rec))
	}
	return msgs, nil
}

// Clear removes every message for userID. Deletions run concurrently and
// Clear waits for all of them; any individual failure makes the whole
// call report an error, but records already deleted stay deleted.
func (a *Adapter) Clear(ctx context.Context, userID string) error {
	recs, err := a.store.Query(ctx, docstore.Query{UserID: userID})
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		failed   int
	)
	for _, rec := range recs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := a.store.Delete(ctx, id); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				failed++
				mu.Unlock()
			}
		}(rec.ID)
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("clear history: %d of %d deletions failed: %w", failed, len(recs), firstErr)
	}
	return nil
}

func toMessage(rec docstore.Record) chat.Message {
	msg := chat.Message{
		ID:        rec.ID,
		Role:      chat.Role(rec.Role),
		Content:   rec.Content,
		Timestamp: rec.Timestamp,
	}
	if rec.Code != "" {
		msg.Code = &chat.CodeBlock{Code: rec.Code, Language: rec.Language}
	}
	return msg
}
