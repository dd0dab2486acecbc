package localcache

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

type sessionStore struct {
	store localstore.Store
}

// NewSessionStore keeps the session under SessionKey of store. Pass the raw
// store, not the cache namespace.
func NewSessionStore(store localstore.Store) session.Store {
	return &sessionStore{store: store}
}

func (s *sessionStore) Load(ctx context.Context) (*user.User, error) {
	u, err := getJSON[user.User](ctx, s.store, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("localcache: load session: %w", err)
	}
	return u, nil
}

func (s *sessionStore) Save(ctx context.Context, u user.User) error {
	if err := putJSON(ctx, s.store, SessionKey, u); err != nil {
		return fmt.Errorf("localcache: save session: %w", err)
	}
	return nil
}

func (s *sessionStore) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("localcache: clear session: %w", err)
	}
	return nil
}
