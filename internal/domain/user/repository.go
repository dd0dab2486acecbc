package user

import (
	"context"
)

// RemoteRepository is the user collection of the remote record store.
// Lookups return nil, nil when nothing matches.
type RemoteRepository interface {
	GetByMobile(ctx context.Context, mobile string) (*User, error)
	GetByID(ctx context.Context, id ID) (*User, error)
	GetContractorByCode(ctx context.Context, code string) (*User, error)
	Create(ctx context.Context, newUser User) (User, error)
	UpdateContractorCode(ctx context.Context, id ID, code string) error
	UpdateLinkedContractorCode(ctx context.Context, id ID, code string) error
	UpdatePassword(ctx context.Context, id ID, passwordHash string) error
}

// CacheRepository mirrors users in the local cache, indexed by id and mobile.
type CacheRepository interface {
	Get(ctx context.Context, id ID) (*User, error)
	GetByMobile(ctx context.Context, mobile string) (*User, error)
	Put(ctx context.Context, u User) error
	List(ctx context.Context) ([]User, error)
}
