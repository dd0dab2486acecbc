package user

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/memory"
	sessionsvc "github.com/shramsathi/shramsathi-backend-go/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type queued struct {
	op      syncqueue.Operation
	key     string
	payload json.RawMessage
}

type recordingQueue struct {
	mu      sync.Mutex
	entries []queued
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
	q.entries = append(q.entries, queued{op: op, key: key, payload: raw})
	return nil
}

func (q *recordingQueue) Discard(_ context.Context, op syncqueue.Operation, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.op != op || e.key != key {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return nil
}

func (q *recordingQueue) Pending(op syncqueue.Operation, key string) (json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.entries) - 1; i >= 0; i-- {
		if e := q.entries[i]; e.op == op && e.key == key {
			return e.payload, true
		}
	}
	return nil, false
}

func (q *recordingQueue) ops() []syncqueue.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := make([]syncqueue.Operation, 0, len(q.entries))
	for _, e := range q.entries {
		ops = append(ops, e.op)
	}
	return ops
}

type fixture struct {
	remote   *memory.Store
	cache    user.CacheRepository
	queue    *recordingQueue
	sessions session.SessionService
	svc      *UserServiceImpl
}

func newFixture(t *testing.T, remoteFirst bool) *fixture {
	t.Helper()
	raw := localstore.NewMemoryStore()
	ns := localstore.NewNamespace(raw, "shramsathi_temp_")
	remote := memory.NewStore()
	cache := localcache.NewUserRepository(ns)
	queue := &recordingQueue{}
	sessions, err := sessionsvc.NewSessionService(context.Background(), localcache.NewSessionStore(raw))
	require.NoError(t, err)

	svc := NewUserService(remote.Users(), cache, remote, queue, sessions, remoteFirst).(*UserServiceImpl)
	return &fixture{remote: remote, cache: cache, queue: queue, sessions: sessions, svc: svc}
}

func workerRequest(mobile string) user.CreateUserRequest {
	skill := "mason"
	return user.CreateUserRequest{Mobile: mobile, Name: "Ravi", Role: "worker", Password: "1234", Skill: &skill}
}

func contractorRequest(mobile string) user.CreateUserRequest {
	company := "Suresh Builders"
	return user.CreateUserRequest{Mobile: mobile, Name: "Suresh", Role: "contractor", Password: "4321", CompanyName: &company}
}

func TestCreateUser_RemoteRoundTrip(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)
	assert.False(t, id.IsLocal())

	got, err := f.svc.GetUserByMobile(ctx, "9000000002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ravi", got.Name)
	assert.Equal(t, user.RoleWorker, got.Role)
	require.NotNil(t, got.Skill)
	assert.Equal(t, "mason", *got.Skill)

	// PIN is stored hashed
	require.NotNil(t, got.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*got.Password), []byte("1234")))

	// mirrored into the cache
	cached, err := f.cache.GetByMobile(ctx, "9000000002")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, id, cached.ID)
}

func TestCreateUser_OfflineUsesLocalID(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.remote.SetReachable(false)

	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)
	assert.True(t, id.IsLocal())

	got, err := f.svc.GetUserByMobile(ctx, "9000000002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.ID.IsLocal())

	// user creation is never queued
	assert.Empty(t, f.queue.ops())
}

func TestCreateUser_RemoteFirstRequiresRemote(t *testing.T) {
	f := newFixture(t, true)
	f.remote.SetReachable(false)

	_, err := f.svc.CreateUser(context.Background(), workerRequest("9000000002"))
	assert.ErrorIs(t, err, user.ErrRemoteRequired)

	cached, err := f.cache.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestCreateUser_RemoteInsertFailureFallsBackToLocal(t *testing.T) {
	f := newFixture(t, false)
	f.remote.FailNext("users.Create", errors.New("write rejected"))

	id, err := f.svc.CreateUser(context.Background(), workerRequest("9000000002"))
	require.NoError(t, err)
	assert.True(t, id.IsLocal())
}

func TestCreateUser_DuplicateMobile(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, contractorRequest("9000000002"))
	assert.ErrorIs(t, err, user.ErrMobileExists)

	// a mobile registered offline is also known
	f.remote.SetReachable(false)
	_, err = f.svc.CreateUser(ctx, workerRequest("9000000003"))
	require.NoError(t, err)
	_, err = f.svc.CreateUser(ctx, workerRequest("9000000003"))
	assert.ErrorIs(t, err, user.ErrMobileExists)
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.CreateUser(context.Background(), user.CreateUserRequest{Mobile: "123", Name: "", Role: "owner"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "mobile")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "role")
}

func TestCreateUser_ContractorGetsCode(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	id, err := f.svc.CreateUser(ctx, contractorRequest("9000000001"))
	require.NoError(t, err)

	got, err := f.svc.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.HasContractorCode())
	assert.Regexp(t, `^[A-Z0-9]{6}$`, *got.ContractorCode)

	byCode, err := f.remote.Users().GetContractorByCode(ctx, *got.ContractorCode)
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, id, byCode.ID)
}

func TestAuthenticateUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)

	u, err := f.svc.AuthenticateUser(ctx, "9000000002", "1234")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, wrongPIN := f.svc.AuthenticateUser(ctx, "9000000002", "9999")
	_, unknown := f.svc.AuthenticateUser(ctx, "9999999999", "1234")
	assert.ErrorIs(t, wrongPIN, user.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, user.ErrInvalidCredentials)
	assert.Equal(t, wrongPIN.Error(), unknown.Error())

	// offline login is served by the cache
	f.remote.SetReachable(false)
	u, err = f.svc.AuthenticateUser(ctx, "9000000002", "1234")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}

func TestAuthenticateUser_MigratesPlaintextPIN(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.remote.SetReachable(false)

	legacy := "1234"
	u := user.User{ID: user.NewLocalID(), Mobile: "9000000002", Name: "Ravi", Role: user.RoleWorker, Password: &legacy}
	require.NoError(t, f.cache.Put(ctx, u))

	_, err := f.svc.AuthenticateUser(ctx, "9000000002", "0000")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	got, err := f.svc.AuthenticateUser(ctx, "9000000002", "1234")
	require.NoError(t, err)
	require.NotNil(t, got.Password)
	assert.NotEqual(t, "1234", *got.Password)

	cached, err := f.cache.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*cached.Password), []byte("1234")))

	// the hash keeps working
	_, err = f.svc.AuthenticateUser(ctx, "9000000002", "1234")
	assert.NoError(t, err)
}

func TestAuthenticateUser_NoPIN(t *testing.T) {
	f := newFixture(t, false)
	req := workerRequest("9000000002")
	req.Password = ""
	_, err := f.svc.CreateUser(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.AuthenticateUser(context.Background(), "9000000002", "")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestEnsureContractorCode(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	// a contractor created without a code, as older clients did
	created, err := f.remote.Users().Create(ctx, user.User{Mobile: "9000000001", Name: "Suresh", Role: user.RoleContractor})
	require.NoError(t, err)
	require.NoError(t, f.sessions.SignIn(ctx, created))

	code, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)

	again, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	remoteUser, err := f.remote.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, code, *remoteUser.ContractorCode)

	active := f.sessions.Current()
	require.NotNil(t, active)
	require.NotNil(t, active.ContractorCode)
	assert.Equal(t, code, *active.ContractorCode)
}

func TestEnsureContractorCode_RemoteFailureIsQueued(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	created, err := f.remote.Users().Create(ctx, user.User{Mobile: "9000000001", Name: "Suresh", Role: user.RoleContractor})
	require.NoError(t, err)
	f.remote.FailNext("users.UpdateContractorCode", errors.New("timeout"))

	code, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpUpdateContractorCode}, f.queue.ops())

	cached, err := f.cache.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, code, *cached.ContractorCode)
}

func TestEnsureContractorCode_QueuedCodeIsStable(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, err := f.remote.Users().Create(ctx, user.User{Mobile: "9000000001", Name: "Suresh", Role: user.RoleContractor})
	require.NoError(t, err)
	f.remote.FailNext("users.UpdateContractorCode", errors.New("timeout"))

	first, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	second, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpUpdateContractorCode}, f.queue.ops())

	// a remote read still shows the code waiting for sync
	got, err := f.svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ContractorCode)
	assert.Equal(t, first, *got.ContractorCode)
}

func TestEnsureContractorCode_PendingCodeWins(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	created, err := f.remote.Users().Create(ctx, user.User{Mobile: "9000000001", Name: "Suresh", Role: user.RoleContractor})
	require.NoError(t, err)
	require.NoError(t, f.queue.Enqueue(ctx, syncqueue.OpUpdateContractorCode,
		syncqueue.UpdateContractorCodePayload{UserID: created.ID.String(), ContractorCode: "OLD111"}))

	code, err := f.svc.EnsureContractorCode(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "OLD111", code)
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpUpdateContractorCode}, f.queue.ops())
}

func TestEnsureContractorCode_RejectsWorker(t *testing.T) {
	f := newFixture(t, false)
	id, err := f.svc.CreateUser(context.Background(), workerRequest("9000000002"))
	require.NoError(t, err)

	_, err = f.svc.EnsureContractorCode(context.Background(), id)
	assert.ErrorIs(t, err, user.ErrContractorRequired)

	_, err = f.svc.EnsureContractorCode(context.Background(), user.RemoteID("missing"))
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSetPassword(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := workerRequest("9000000002")
	req.Password = ""
	id, err := f.svc.CreateUser(ctx, req)
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, id, "12")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	f.remote.SetReachable(false)
	require.NoError(t, f.svc.SetPassword(ctx, id, "5678"))
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpSetPassword}, f.queue.ops())

	u, err := f.svc.AuthenticateUser(ctx, "9000000002", "5678")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}

func TestSetPassword_QueuedPINSurvivesRemoteRead(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)

	f.remote.FailNext("users.UpdatePassword", errors.New("timeout"))
	require.NoError(t, f.svc.SetPassword(ctx, id, "5678"))
	assert.Equal(t, []syncqueue.Operation{syncqueue.OpSetPassword}, f.queue.ops())

	u, err := f.svc.AuthenticateUser(ctx, "9000000002", "5678")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = f.svc.AuthenticateUser(ctx, "9000000002", "1234")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	// the cache mirror keeps the new PIN as well
	cached, err := f.cache.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.HasPassword())
	_, err = f.svc.AuthenticateUser(ctx, "9000000002", "5678")
	require.NoError(t, err)
}

func TestSetPassword_RemoteSuccessDropsQueuedPIN(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)

	f.remote.FailNext("users.UpdatePassword", errors.New("timeout"))
	require.NoError(t, f.svc.SetPassword(ctx, id, "5678"))
	require.NoError(t, f.svc.SetPassword(ctx, id, "9012"))
	assert.Empty(t, f.queue.ops())

	_, err = f.svc.AuthenticateUser(ctx, "9000000002", "9012")
	require.NoError(t, err)
}

func TestSetPassword_LocalUserIsNotQueued(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.remote.SetReachable(false)
	id, err := f.svc.CreateUser(ctx, workerRequest("9000000002"))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetPassword(ctx, id, "5678"))
	assert.Empty(t, f.queue.ops())
}
