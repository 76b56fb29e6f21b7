package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/astra-labs/astra/internal/chat"
	"github.com/astra-labs/astra/internal/docstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory docstore.Store with scriptable failure modes.
type fakeStore struct {
	mu          sync.Mutex
	records     []docstore.Record
	orderedErr  error // returned for ordered queries
	queryErr    error // returned for any query
	insertErr   error
	deleteFails map[string]error // per-id delete failures
}

func (f *fakeStore) Insert(ctx context.Context, rec docstore.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Record, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if q.OrderByTimestamp && f.orderedErr != nil {
		return nil, f.orderedErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []docstore.Record
	for _, rec := range f.records {
		if rec.UserID == q.UserID {
			out = append(out, rec)
		}
	}
	if q.OrderByTimestamp {
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if out[j].Timestamp.Before(out[i].Timestamp) {
					out[i], out[j] = out[j], out[i]
				}
			}
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if err, ok := f.deleteFails[id]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func record(id, userID string, ts time.Time) docstore.Record {
	return docstore.Record{
		ID:        id,
		UserID:    userID,
		Role:      "user",
		Content:   "content " + id,
		Timestamp: ts,
	}
}

func TestLoad_OrderedPath(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		store.records = append(store.records, record(fmt.Sprintf("m%d", i), "u1", base.Add(time.Duration(i)*time.Minute)))
	}
	store.records = append(store.records, record("other", "u2", base))

	a := New(store, 0, discardLogger())
	msgs, err := a.Load(context.Background(), "u1", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("expected oldest-first order, got %s at %d", m.ID, i)
		}
	}
}

func TestLoad_FallbackOnPreconditionFailed(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{orderedErr: docstore.ErrPreconditionFailed}
	// Insert deliberately out of order.
	for _, i := range []int{3, 0, 4, 1, 2} {
		store.records = append(store.records, record(fmt.Sprintf("m%d", i), "u1", base.Add(time.Duration(i)*time.Minute)))
	}

	a := New(store, 0, discardLogger())
	msgs, err := a.Load(context.Background(), "u1", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("expected in-memory ascending sort, got %s at %d", m.ID, i)
		}
	}
}

func TestLoad_OtherErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	a := New(&fakeStore{queryErr: boom}, 0, discardLogger())

	_, err := a.Load(context.Background(), "u1", 50)
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error propagated, got %v", err)
	}
}

func TestLoad_Limit(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	for i := 0; i < 8; i++ {
		store.records = append(store.records, record(fmt.Sprintf("m%d", i), "u1", base.Add(time.Duration(i)*time.Minute)))
	}

	a := New(store, 0, discardLogger())
	msgs, err := a.Load(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("expected 3 messages, got %d", len(msgs))
	}
}

func TestAppend_OptionalFields(t *testing.T) {
	store := &fakeStore{}
	a := New(store, 0, discardLogger())

	user := chat.NewUserMessage("question")
	assistant := chat.NewAssistantMessage("answer", &chat.CodeBlock{Code: "print(1)", Language: "python"})

	if err := a.Append(context.Background(), "u1", user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Append(context.Background(), "u1", assistant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.records[0].Code != "" || store.records[0].Language != "" {
		t.Errorf("user record must not carry code fields: %+v", store.records[0])
	}
	if store.records[1].Code != "print(1)" || store.records[1].Language != "python" {
		t.Errorf("assistant record missing code fields: %+v", store.records[1])
	}
}

func TestAppend_RoundTripCodeBlock(t *testing.T) {
	store := &fakeStore{}
	a := New(store, 0, discardLogger())

	msg := chat.NewAssistantMessage("answer", &chat.CodeBlock{Code: "x", Language: "go"})
	if err := a.Append(context.Background(), "u1", msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, err := a.Load(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Code == nil || msgs[0].Code.Language != "go" {
		t.Errorf("expected code block restored, got %+v", msgs[0].Code)
	}
}

func TestClear_DeletesAll(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	for i := 0; i < 4; i++ {
		store.records = append(store.records, record(fmt.Sprintf("m%d", i), "u1", base))
	}
	store.records = append(store.records, record("keep", "u2", base))

	a := New(store, 0, discardLogger())
	if err := a.Clear(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.records) != 1 || store.records[0].ID != "keep" {
		t.Errorf("expected only u2's record to remain, got %+v", store.records)
	}
}

func TestClear_PartialFailureReportsError(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{
		deleteFails: map[string]error{"m1": errors.New("timeout")},
	}
	for i := 0; i < 3; i++ {
		store.records = append(store.records, record(fmt.Sprintf("m%d", i), "u1", base))
	}

	a := New(store, 0, discardLogger())
	err := a.Clear(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error when one deletion fails")
	}
}
