package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/infra/storage"
)

// Collection is an in-memory storage.Collection backed by an ordered slice.
// Scans observe insertion order; writes are last-write-wins per id.
type Collection[R storage.Record] struct {
	mu      sync.RWMutex
	records []R
}

// NewCollection creates an empty in-memory collection.
func NewCollection[R storage.Record]() *Collection[R] {
	return &Collection[R]{}
}

// Find returns the record with the given id, or the zero value when absent.
func (c *Collection[R]) Find(ctx context.Context, id uuid.UUID) (R, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	var zero R
	return zero, nil
}

// FindWhere returns all records matching the predicate, in insertion order.
func (c *Collection[R]) FindWhere(ctx context.Context, match func(R) bool) ([]R, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []R
	for _, rec := range c.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Write upserts the record, keeping its original position on replace.
func (c *Collection[R]) Write(ctx context.Context, rec R) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.records {
		if existing.RecordID() == rec.RecordID() {
			c.records[i] = rec
			return nil
		}
	}
	c.records = append(c.records, rec)
	return nil
}

// Delete removes the record with the given id; no-op when absent.
func (c *Collection[R]) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range c.records {
		if rec.RecordID() == id {
			c.records = slices.Delete(c.records, i, i+1)
			return nil
		}
	}
	return nil
}

// Len returns the number of stored records.
func (c *Collection[R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
