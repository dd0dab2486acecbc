package syncqueue

import (
	"context"
	"encoding/json"
)

// Enqueuer is the side of the queue used by the data access layer.
type Enqueuer interface {
	// Enqueue queues payload. A Keyed payload replaces queued entries with
	// the same operation and key.
	Enqueue(ctx context.Context, op Operation, payload any) error
	// Discard drops queued entries made stale by a successful remote write.
	Discard(ctx context.Context, op Operation, key string) error
	// Pending returns the payload of the queued entry for op and key.
	Pending(op Operation, key string) (json.RawMessage, bool)
}

type SyncQueue interface {
	Enqueuer
	Drain(ctx context.Context) (DrainResult, error)
	Len() int
	Entries() []Entry
	// Clear drops every queued entry without replaying it.
	Clear(ctx context.Context) error
}
