package storage

import (
	"context"

	"github.com/google/uuid"
)

// Record is any entity addressable by a unique id.
type Record interface {
	RecordID() uuid.UUID
}

// Collection is a keyed store of records. Implementations decide scan order;
// the memory implementation documents insertion order.
type Collection[R Record] interface {
	// Find returns the record with the given id, or the zero value when
	// no record has that id.
	Find(ctx context.Context, id uuid.UUID) (R, error)

	// FindWhere returns every record matching the predicate (full scan).
	FindWhere(ctx context.Context, match func(R) bool) ([]R, error)

	// Write upserts the record: it replaces any record with the same id
	// and inserts otherwise.
	Write(ctx context.Context, rec R) error

	// Delete removes the record with the given id; no-op when absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
