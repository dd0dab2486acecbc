package syncqueue

import (
	"context"
)

// Store persists the queue as a whole.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}
