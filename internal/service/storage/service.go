package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/storage"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
)

type StorageServiceImpl struct {
	cache       localstore.Store
	prober      remote.Prober
	queue       syncqueue.SyncQueue
	sessions    session.SessionService
	relations   relation.RelationService
	remoteFirst bool
}

// NewStorageService takes the namespaced cache store, not the raw one.
func NewStorageService(
	cache localstore.Store,
	prober remote.Prober,
	queue syncqueue.SyncQueue,
	sessions session.SessionService,
	relations relation.RelationService,
	remoteFirst bool,
) storage.StorageService {
	return &StorageServiceImpl{
		cache:       cache,
		prober:      prober,
		queue:       queue,
		sessions:    sessions,
		relations:   relations,
		remoteFirst: remoteFirst,
	}
}

func (s *StorageServiceImpl) Status(ctx context.Context) (storage.Status, error) {
	status := storage.Status{
		RemoteFirst:       s.remoteFirst,
		RemoteReachable:   true,
		QueuedSyncEntries: s.queue.Len(),
	}

	if err := s.prober.Probe(ctx); err != nil {
		msg := err.Error()
		status.RemoteReachable = false
		status.RemoteError = &msg
	}

	counts, err := localcache.Count(ctx, s.cache)
	if err != nil {
		return storage.Status{}, fmt.Errorf("failed to count cached items: %w", err)
	}
	status.CachedItems = counts.Items
	status.CachedUsers = counts.Users
	status.CachedRelations = counts.Relations
	status.CachedAttendance = counts.Attendance

	if active := s.sessions.Current(); active != nil {
		id := active.ID.String()
		status.ActiveUserID = &id
		status.ActiveUserIsLocal = active.ID.IsLocal()
	}
	return status, nil
}

// Reset drops the sync queue, every cached key and the session.
func (s *StorageServiceImpl) Reset(ctx context.Context) (int, error) {
	if err := s.queue.Clear(ctx); err != nil {
		return 0, err
	}

	removed, err := localcache.Clear(ctx, s.cache)
	if err != nil {
		return removed, fmt.Errorf("failed to clear cache: %w", err)
	}

	if s.sessions.Current() != nil {
		if err := s.sessions.SignOut(ctx); err != nil {
			return removed, fmt.Errorf("failed to clear session: %w", err)
		}
		removed++
	}

	slog.WarnContext(ctx, "local cache reset", "removed", removed)
	return removed, nil
}

func (s *StorageServiceImpl) RebuildRelations(ctx context.Context) (int, error) {
	return s.relations.RebuildRelations(ctx)
}
