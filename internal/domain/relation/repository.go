package relation

import (
	"context"
)

// RemoteRepository is the relation collection of the remote record store.
type RemoteRepository interface {
	// GetByPair returns nil, nil when the pair is not related.
	GetByPair(ctx context.Context, contractorID, workerID string) (*Relation, error)
	Create(ctx context.Context, r Relation) (Relation, error)
	ListByContractor(ctx context.Context, contractorID string) ([]Relation, error)
}

// CacheRepository mirrors relations keyed by (contractor, worker), in insertion order.
type CacheRepository interface {
	Get(ctx context.Context, contractorID, workerID string) (*Relation, error)
	Put(ctx context.Context, r Relation) error
	List(ctx context.Context) ([]Relation, error)
	ListByContractor(ctx context.Context, contractorID string) ([]Relation, error)
	DeleteAll(ctx context.Context) (int, error)
}
