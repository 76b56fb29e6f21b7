// Package docstore defines the document-store collaborator that holds
// persisted chat messages, plus its Postgres implementation.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrPreconditionFailed signals that a combined filter+order+limit query
// cannot be served as specified (e.g. a backend missing a composite
// index). Callers are expected to degrade to a filter-only query and sort
// client-side.
var ErrPreconditionFailed = errors.New("docstore: query precondition failed")

// Record is one persisted message. Code and Language are optional; an
// empty string means the field is absent and must not be written as an
// empty placeholder.
type Record struct {
	ID        string
	UserID    string
	Role      string
	Content   string
	Code      string
	Language  string
	Timestamp time.Time
}

// Query selects records for one user. OrderByTimestamp asks for ascending
// timestamp order; Limit of zero means unbounded.
type Query struct {
	UserID           string
	OrderByTimestamp bool
	Limit            int
}

// Store is the persistence collaborator: insert, filtered query, and
// delete-by-id. Implementations signal ErrPreconditionFailed when an
// ordered query cannot be served.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Delete(ctx context.Context, id string) error
}
