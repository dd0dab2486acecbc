package session

import (
	"context"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

type SessionService interface {
	Current() *user.User
	SignIn(ctx context.Context, u user.User) error
	SignOut(ctx context.Context) error
	// UpdateIfActive applies mutate to the active user when its id matches.
	UpdateIfActive(ctx context.Context, id user.ID, mutate func(*user.User)) error
}

// Updater is the part of the session the data access layer depends on.
type Updater interface {
	UpdateIfActive(ctx context.Context, id user.ID, mutate func(*user.User)) error
}
