package attendance

import (
	"context"
)

// DateRange bounds a query by date, both ends inclusive. Empty bounds are open.
type DateRange struct {
	Start string
	End   string
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// RemoteRepository is the attendance collection of the remote record store.
type RemoteRepository interface {
	// GetByUserAndDate returns nil, nil when no record exists.
	GetByUserAndDate(ctx context.Context, userID string, date string) (*Record, error)
	Create(ctx context.Context, r Record) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	// ListByUser filters by user and range and orders by date descending.
	// It may fail with remote.ErrIndexRequired.
	ListByUser(ctx context.Context, userID string, rng DateRange) ([]Record, error)
	// ListAllByUser filters on user only, in no particular order.
	ListAllByUser(ctx context.Context, userID string) ([]Record, error)
}

// CacheRepository mirrors attendance records in the local cache keyed by (user, date).
type CacheRepository interface {
	Get(ctx context.Context, userID string, date string) (*Record, error)
	Put(ctx context.Context, r Record) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	List(ctx context.Context) ([]Record, error)
}
