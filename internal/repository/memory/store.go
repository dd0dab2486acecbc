// Package memory is an in-process remote record store. It backs the
// development profile and the service tests, and can be switched offline
// to exercise the local fallback paths.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

type Store struct {
	mu         sync.RWMutex
	reachable  bool
	needIndex  bool
	failures   map[string]error
	probes     int
	users      map[string]user.User
	userOrder  []string
	attendance map[string]attendance.Record
	relations  []relation.Relation
}

func NewStore() *Store {
	return &Store{
		reachable:  true,
		failures:   make(map[string]error),
		users:      make(map[string]user.User),
		attendance: make(map[string]attendance.Record),
	}
}

// SetReachable switches the store on or offline. Offline calls fail with remote.ErrUnreachable.
func (s *Store) SetReachable(reachable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable = reachable
}

// RequireCompositeIndex makes range queries fail with remote.ErrIndexRequired.
func (s *Store) RequireCompositeIndex(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needIndex = required
}

// FailNext makes the next call of op (e.g. "users.Create") fail with err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Probes returns how many probe writes have succeeded.
func (s *Store) Probes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.probes
}

func (s *Store) Users() user.RemoteRepository { return &userRepository{s: s} }

func (s *Store) Attendance() attendance.RemoteRepository { return &attendanceRepository{s: s} }

func (s *Store) Relations() relation.RemoteRepository { return &relationRepository{s: s} }

// Probe writes a heartbeat, like the PostgreSQL probe row.
func (s *Store) Probe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "probe"); err != nil {
		return err
	}
	s.probes++
	return nil
}

// check must be called with mu held.
func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.reachable {
		return remote.ErrUnreachable
	}
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

var _ remote.Prober = (*Store)(nil)
