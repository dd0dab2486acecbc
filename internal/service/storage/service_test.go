package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/storage"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/memory"
	attendancesvc "github.com/shramsathi/shramsathi-backend-go/internal/service/attendance"
	relationsvc "github.com/shramsathi/shramsathi-backend-go/internal/service/relation"
	sessionsvc "github.com/shramsathi/shramsathi-backend-go/internal/service/session"
	syncqueuesvc "github.com/shramsathi/shramsathi-backend-go/internal/service/syncqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	raw         *localstore.MemoryStore
	remote      *memory.Store
	queue       *syncqueuesvc.Queue
	sessions    session.SessionService
	attendances attendance.AttendanceService
	svc         storage.StorageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	raw := localstore.NewMemoryStore()
	ns := localstore.NewNamespace(raw, "shramsathi_temp_")
	remote := memory.NewStore()

	queue, err := syncqueuesvc.NewQueue(ctx, localcache.NewSyncQueueStore(ns), remote,
		syncqueuesvc.NewReplayers(remote.Users(), remote.Attendance(), remote.Relations()),
		syncqueuesvc.Config{DrainDelay: time.Hour, RestoreDelay: time.Hour})
	require.NoError(t, err)
	t.Cleanup(queue.Stop)

	sessions, err := sessionsvc.NewSessionService(ctx, localcache.NewSessionStore(raw))
	require.NoError(t, err)

	cacheUsers := localcache.NewUserRepository(ns)
	relations := relationsvc.NewRelationService(remote.Relations(), localcache.NewRelationRepository(ns),
		remote.Users(), cacheUsers, remote, queue, sessions)

	return &fixture{
		raw:         raw,
		remote:      remote,
		queue:       queue,
		sessions:    sessions,
		attendances: attendancesvc.NewAttendanceService(remote.Attendance(), localcache.NewAttendanceRepository(ns), remote, queue),
		svc:         NewStorageService(ns, remote, queue, sessions, relations, true),
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.attendances.SaveAttendance(ctx, attendance.SaveAttendanceRequest{UserID: "u1", Date: "2024-03-15", Type: "P"})
	require.NoError(t, err)
	require.NoError(t, f.sessions.SignIn(ctx, user.User{ID: user.NewLocalID(), Mobile: "9000000002", Role: user.RoleWorker}))

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.RemoteFirst)
	assert.True(t, status.RemoteReachable)
	assert.Nil(t, status.RemoteError)
	assert.Equal(t, 1, status.CachedAttendance)
	assert.Equal(t, 1, status.CachedItems)
	assert.Equal(t, 0, status.QueuedSyncEntries)
	require.NotNil(t, status.ActiveUserID)
	assert.True(t, status.ActiveUserIsLocal)
}

func TestStatus_Offline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.SetReachable(false)

	_, err := f.attendances.SaveAttendance(ctx, attendance.SaveAttendanceRequest{UserID: "u1", Date: "2024-03-15", Type: "P"})
	require.NoError(t, err)

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.RemoteReachable)
	require.NotNil(t, status.RemoteError)
	assert.Equal(t, 1, status.QueuedSyncEntries)
	// attendance record plus the persisted queue
	assert.Equal(t, 2, status.CachedItems)
	assert.Nil(t, status.ActiveUserID)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.SetReachable(false)

	_, err := f.attendances.SaveAttendance(ctx, attendance.SaveAttendanceRequest{UserID: "u1", Date: "2024-03-15", Type: "P"})
	require.NoError(t, err)
	require.NoError(t, f.sessions.SignIn(ctx, user.User{ID: user.RemoteID("u1"), Mobile: "9000000002", Role: user.RoleWorker}))
	require.NoError(t, f.raw.Set(ctx, "other_app_key", "kept"))

	removed, err := f.svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, f.queue.Len())
	assert.Nil(t, f.sessions.Current())

	items, err := f.raw.Scan(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "other_app_key", items[0].Key)
}

func TestRebuildRelations_Empty(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.RebuildRelations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
