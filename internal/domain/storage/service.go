package storage

import (
	"context"
)

type StorageService interface {
	Status(ctx context.Context) (Status, error)
	// Reset removes every cached key and the session; it returns the number of keys removed.
	Reset(ctx context.Context) (int, error)
	RebuildRelations(ctx context.Context) (int, error)
}
