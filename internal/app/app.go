// Package app wires the stores and services shared by the API server and
// the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shramsathi/shramsathi-backend-go/internal/config"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/storage"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/database"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/memory"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/postgresql"
	attendanceService "github.com/shramsathi/shramsathi-backend-go/internal/service/attendance"
	relationService "github.com/shramsathi/shramsathi-backend-go/internal/service/relation"
	sessionService "github.com/shramsathi/shramsathi-backend-go/internal/service/session"
	storageService "github.com/shramsathi/shramsathi-backend-go/internal/service/storage"
	syncqueueService "github.com/shramsathi/shramsathi-backend-go/internal/service/syncqueue"
	userService "github.com/shramsathi/shramsathi-backend-go/internal/service/user"
)

type remoteStore struct {
	users      user.RemoteRepository
	attendance attendance.RemoteRepository
	relations  relation.RemoteRepository
	prober     remote.Prober
	close      func()
}

type App struct {
	Users      user.UserService
	Attendance attendance.AttendanceService
	Relations  relation.RelationService
	Sessions   session.SessionService
	Storage    storage.StorageService
	SyncQueue  *syncqueueService.Queue

	cache  *localstore.SQLiteStore
	remote remoteStore
}

// New opens both stores and builds the services. The remote store is not
// required to be reachable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	rs, err := openRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache, err := localstore.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		rs.close()
		return nil, err
	}
	ns := localstore.NewNamespace(cache, cfg.Cache.Prefix)

	queue, err := syncqueueService.NewQueue(ctx,
		localcache.NewSyncQueueStore(ns),
		rs.prober,
		syncqueueService.NewReplayers(rs.users, rs.attendance, rs.relations),
		syncqueueService.Config{DrainDelay: cfg.Sync.DrainDelay, RestoreDelay: cfg.Sync.RestoreDelay},
	)
	if err != nil {
		cache.Close()
		rs.close()
		return nil, err
	}

	sessions, err := sessionService.NewSessionService(ctx, localcache.NewSessionStore(cache))
	if err != nil {
		cache.Close()
		rs.close()
		return nil, err
	}

	cacheUsers := localcache.NewUserRepository(ns)
	users := userService.NewUserService(rs.users, cacheUsers, rs.prober, queue, sessions, cfg.Remote.RemoteFirst)
	records := attendanceService.NewAttendanceService(rs.attendance, localcache.NewAttendanceRepository(ns), rs.prober, queue)
	relations := relationService.NewRelationService(rs.relations, localcache.NewRelationRepository(ns), rs.users, cacheUsers, rs.prober, queue, sessions)

	return &App{
		Users:      users,
		Attendance: records,
		Relations:  relations,
		Sessions:   sessions,
		Storage:    storageService.NewStorageService(ns, rs.prober, queue, sessions, relations, cfg.Remote.RemoteFirst),
		SyncQueue:  queue,
		cache:      cache,
		remote:     rs,
	}, nil
}

func openRemote(ctx context.Context, cfg *config.Config) (remoteStore, error) {
	if cfg.Remote.Driver == config.RemoteDriverMemory {
		slog.Warn("using in-memory remote store, data is lost on exit")
		store := memory.NewStore()
		return remoteStore{
			users:      store.Users(),
			attendance: store.Attendance(),
			relations:  store.Relations(),
			prober:     store,
			close:      func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return remoteStore{}, fmt.Errorf("open remote store: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		// offline at start is expected; the cache serves until it answers
		slog.Warn("remote migrations not applied", "error", err)
	}

	return remoteStore{
		users:      postgresql.NewUserRepository(db),
		attendance: postgresql.NewAttendanceRepository(db, cfg.Remote.RangeQueryTimeout),
		relations:  postgresql.NewRelationRepository(db),
		prober:     postgresql.NewProber(db),
		close:      db.Close,
	}, nil
}

// Close stops the sync queue timer and closes both stores.
func (a *App) Close() {
	a.SyncQueue.Stop()
	if err := a.cache.Close(); err != nil {
		slog.Error("failed to close local cache", "error", err)
	}
	a.remote.close()
}
