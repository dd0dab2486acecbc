package relation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/memory"
	sessionsvc "github.com/shramsathi/shramsathi-backend-go/internal/service/session"
	usersvc "github.com/shramsathi/shramsathi-backend-go/internal/service/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu       sync.Mutex
	ops      []syncqueue.Operation
	keys     []string
	payloads []json.RawMessage
}

func (q *recordingQueue) Enqueue(_ context.Context, op syncqueue.Operation, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var key string
	if k, ok := payload.(syncqueue.Keyed); ok {
		key = k.SyncKey()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
	q.keys = append(q.keys, key)
	q.payloads = append(q.payloads, raw)
	return nil
}

func (q *recordingQueue) Discard(_ context.Context, op syncqueue.Operation, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.ops) - 1; i >= 0; i-- {
		if q.ops[i] == op && q.keys[i] == key {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			q.payloads = append(q.payloads[:i], q.payloads[i+1:]...)
		}
	}
	return nil
}

func (q *recordingQueue) Pending(op syncqueue.Operation, key string) (json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.ops) - 1; i >= 0; i-- {
		if q.ops[i] == op && q.keys[i] == key {
			return q.payloads[i], true
		}
	}
	return nil, false
}

type fixture struct {
	remote     *memory.Store
	cacheUsers user.CacheRepository
	cacheRels  relation.CacheRepository
	queue      *recordingQueue
	sessions   session.SessionService
	users      user.UserService
	svc        relation.RelationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	raw := localstore.NewMemoryStore()
	ns := localstore.NewNamespace(raw, "shramsathi_temp_")
	remote := memory.NewStore()
	cacheUsers := localcache.NewUserRepository(ns)
	cacheRels := localcache.NewRelationRepository(ns)
	queue := &recordingQueue{}
	sessions, err := sessionsvc.NewSessionService(context.Background(), localcache.NewSessionStore(raw))
	require.NoError(t, err)

	return &fixture{
		remote:     remote,
		cacheUsers: cacheUsers,
		cacheRels:  cacheRels,
		queue:      queue,
		sessions:   sessions,
		users:      usersvc.NewUserService(remote.Users(), cacheUsers, remote, queue, sessions, false),
		svc:        NewRelationService(remote.Relations(), cacheRels, remote.Users(), cacheUsers, remote, queue, sessions),
	}
}

func (f *fixture) createContractor(t *testing.T, mobile string) (user.ID, string) {
	t.Helper()
	ctx := context.Background()
	company := "Suresh Builders"
	id, err := f.users.CreateUser(ctx, user.CreateUserRequest{Mobile: mobile, Name: "Suresh", Role: "contractor", Password: "4321", CompanyName: &company})
	require.NoError(t, err)
	code, err := f.users.EnsureContractorCode(ctx, id)
	require.NoError(t, err)
	return id, code
}

func (f *fixture) createWorker(t *testing.T, mobile string) user.ID {
	t.Helper()
	skill := "mason"
	id, err := f.users.CreateUser(context.Background(), user.CreateUserRequest{Mobile: mobile, Name: "Ravi", Role: "worker", Password: "1234", Skill: &skill})
	require.NoError(t, err)
	return id
}

func TestAssignWorkerToContractor_RemoteScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contractorID, code := f.createContractor(t, "9000000001")
	workerID := f.createWorker(t, "9000000002")
	require.NoError(t, f.sessions.SignIn(ctx, user.User{ID: workerID, Mobile: "9000000002", Role: user.RoleWorker}))

	linked, err := f.svc.AssignWorkerToContractor(ctx, workerID, " "+strings.ToLower(code)+" ")
	require.NoError(t, err)
	assert.True(t, linked)

	workers, err := f.svc.GetWorkersByContractor(ctx, contractorID)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "9000000002", workers[0].Mobile)
	require.NotNil(t, workers[0].LinkedContractorCode)
	assert.Equal(t, code, *workers[0].LinkedContractorCode)

	active := f.sessions.Current()
	require.NotNil(t, active)
	require.NotNil(t, active.LinkedContractorCode)
	assert.Equal(t, code, *active.LinkedContractorCode)

	cached, err := f.cacheRels.Get(ctx, contractorID.String(), workerID.String())
	require.NoError(t, err)
	assert.NotNil(t, cached)
	assert.Empty(t, f.queue.ops)
}

func TestAssignWorkerToContractor_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contractorID, code := f.createContractor(t, "9000000001")
	workerID := f.createWorker(t, "9000000002")

	for i := 0; i < 3; i++ {
		linked, err := f.svc.AssignWorkerToContractor(ctx, workerID, code)
		require.NoError(t, err)
		assert.True(t, linked)
	}

	rels, err := f.remote.Relations().ListByContractor(ctx, contractorID.String())
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	cached, err := f.cacheRels.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestAssignWorkerToContractor_UnknownCode(t *testing.T) {
	f := newFixture(t)
	workerID := f.createWorker(t, "9000000002")

	linked, err := f.svc.AssignWorkerToContractor(context.Background(), workerID, "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, linked)
}

func TestAssignWorkerToContractor_InvalidCode(t *testing.T) {
	f := newFixture(t)
	workerID := f.createWorker(t, "9000000002")

	_, err := f.svc.AssignWorkerToContractor(context.Background(), workerID, "AB-12")
	assert.ErrorIs(t, err, relation.ErrInvalidContractorCode)
}

func TestAssignWorkerToContractor_OfflineLinksLocallyAndQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contractorID, code := f.createContractor(t, "9000000001")
	workerID := f.createWorker(t, "9000000002")
	f.remote.SetReachable(false)

	linked, err := f.svc.AssignWorkerToContractor(ctx, workerID, code)
	require.NoError(t, err)
	assert.True(t, linked)
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpAssignWorker}, f.queue.ops)

	rel, err := f.cacheRels.Get(ctx, contractorID.String(), workerID.String())
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.True(t, user.ParseID(rel.ID).IsLocal())

	workers, err := f.svc.GetWorkersByContractor(ctx, contractorID)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, workerID, workers[0].ID)
}

func TestAssignWorkerToContractor_LocalUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.SetReachable(false)

	contractorID, code := f.createContractor(t, "9000000001")
	workerID := f.createWorker(t, "9000000002")
	require.True(t, contractorID.IsLocal())
	require.True(t, workerID.IsLocal())

	linked, err := f.svc.AssignWorkerToContractor(ctx, workerID, code)
	require.NoError(t, err)
	assert.True(t, linked)
	assert.Empty(t, f.queue.ops)

	// the remote store coming back does not hide local links
	f.remote.SetReachable(true)
	workers, err := f.svc.GetWorkersByContractor(ctx, contractorID)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "9000000002", workers[0].Mobile)
}

func TestGetWorkersByContractor_LastLinkWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, firstCode := f.createContractor(t, "9000000001")
	second, secondCode := f.createContractor(t, "9000000003")
	workerID := f.createWorker(t, "9000000002")

	_, err := f.svc.AssignWorkerToContractor(ctx, workerID, firstCode)
	require.NoError(t, err)
	_, err = f.svc.AssignWorkerToContractor(ctx, workerID, secondCode)
	require.NoError(t, err)

	workers, err := f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, workers)

	workers, err = f.svc.GetWorkersByContractor(ctx, second)
	require.NoError(t, err)
	assert.Len(t, workers, 1)

	// re-linking re-points without a duplicate relation
	_, err = f.svc.AssignWorkerToContractor(ctx, workerID, firstCode)
	require.NoError(t, err)
	rels, err := f.remote.Relations().ListByContractor(ctx, first.String())
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	workers, err = f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	assert.Len(t, workers, 1)
}

func TestGetWorkersByContractor_RemoteMoveIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, firstCode := f.createContractor(t, "9000000001")
	_, secondCode := f.createContractor(t, "9000000003")
	workerID := f.createWorker(t, "9000000002")

	_, err := f.svc.AssignWorkerToContractor(ctx, workerID, firstCode)
	require.NoError(t, err)
	workers, err := f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	require.Len(t, workers, 1)

	// another device moves the worker; only the remote store knows
	require.NoError(t, f.remote.Users().UpdateLinkedContractorCode(ctx, workerID, secondCode))

	workers, err = f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, workers)

	cached, err := f.cacheUsers.Get(ctx, workerID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.LinkedContractorCode)
	assert.Equal(t, secondCode, *cached.LinkedContractorCode)

	// the mirrored move also holds offline
	f.remote.SetReachable(false)
	workers, err = f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, workers)
}

func TestGetWorkersByContractor_QueuedLinkSurvivesRemoteRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, firstCode := f.createContractor(t, "9000000001")
	second, secondCode := f.createContractor(t, "9000000003")
	workerID := f.createWorker(t, "9000000002")

	_, err := f.svc.AssignWorkerToContractor(ctx, workerID, firstCode)
	require.NoError(t, err)

	f.remote.FailNext("users.UpdateLinkedContractorCode", errors.New("timeout"))
	linked, err := f.svc.AssignWorkerToContractor(ctx, workerID, secondCode)
	require.NoError(t, err)
	require.True(t, linked)
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpAssignWorker}, f.queue.ops)

	workers, err := f.svc.GetWorkersByContractor(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, workers)

	workers, err = f.svc.GetWorkersByContractor(ctx, second)
	require.NoError(t, err)
	assert.Len(t, workers, 1)
}

func TestAssignWorkerToContractor_RemoteLinkDropsQueuedLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, firstCode := f.createContractor(t, "9000000001")
	_, secondCode := f.createContractor(t, "9000000003")
	workerID := f.createWorker(t, "9000000002")

	f.remote.SetReachable(false)
	_, err := f.svc.AssignWorkerToContractor(ctx, workerID, firstCode)
	require.NoError(t, err)
	require.Equal(t, []syncqueue.Operation{syncqueue.OpAssignWorker}, f.queue.ops)

	f.remote.SetReachable(true)
	_, err = f.svc.AssignWorkerToContractor(ctx, workerID, secondCode)
	require.NoError(t, err)
	assert.Empty(t, f.queue.ops)
}

func TestRebuildRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contractorID, code := f.createContractor(t, "9000000001")
	workerID := f.createWorker(t, "9000000002")
	f.createWorker(t, "9000000004")
	_, err := f.svc.AssignWorkerToContractor(ctx, workerID, code)
	require.NoError(t, err)

	// a stale relation for a worker that never linked
	require.NoError(t, f.cacheRels.Put(ctx, relation.Relation{ID: "stale", ContractorID: contractorID.String(), WorkerID: "nobody", ContractorCode: code}))

	created, err := f.svc.RebuildRelations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	rels, err := f.cacheRels.List(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, workerID.String(), rels[0].WorkerID)
	assert.Equal(t, contractorID.String(), rels[0].ContractorID)
}
