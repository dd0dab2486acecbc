package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

// SessionServiceImpl keeps the single signed-in user of the device.
type SessionServiceImpl struct {
	store session.Store

	mu      sync.RWMutex
	current *user.User
}

// NewSessionService restores the persisted session, if any.
func NewSessionService(ctx context.Context, store session.Store) (session.SessionService, error) {
	restored, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if restored != nil {
		slog.Info("session restored", "user_id", restored.ID.String(), "role", restored.Role)
	}
	return &SessionServiceImpl{store: store, current: restored}, nil
}

// Current implements session.SessionService. It returns a copy.
func (s *SessionServiceImpl) Current() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// SignIn implements session.SessionService. The PIN hash is not kept in the session.
func (s *SessionServiceImpl) SignIn(ctx context.Context, u user.User) error {
	u.Password = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, u); err != nil {
		return err
	}
	s.current = &u
	return nil
}

// SignOut implements session.SessionService.
func (s *SessionServiceImpl) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// UpdateIfActive implements session.SessionService.
func (s *SessionServiceImpl) UpdateIfActive(ctx context.Context, id user.ID, mutate func(*user.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return nil
	}
	updated := *s.current
	mutate(&updated)
	updated.Password = nil
	if err := s.store.Save(ctx, updated); err != nil {
		return err
	}
	s.current = &updated
	return nil
}
