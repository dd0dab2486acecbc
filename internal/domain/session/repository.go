package session

import (
	"context"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

// Store persists the active user of the device. Load returns nil, nil when nobody is signed in.
type Store interface {
	Load(ctx context.Context) (*user.User, error)
	Save(ctx context.Context, u user.User) error
	Clear(ctx context.Context) error
}
