package session

import (
	"context"
	"testing"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/repository/localcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_SignInRestoreSignOut(t *testing.T) {
	ctx := context.Background()
	raw := localstore.NewMemoryStore()
	store := localcache.NewSessionStore(raw)

	svc, err := NewSessionService(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, svc.Current())

	hash := "$2a$10$hash"
	u := user.User{ID: user.RemoteID("c1"), Mobile: "9000000001", Name: "Suresh", Role: user.RoleContractor, Password: &hash}
	require.NoError(t, svc.SignIn(ctx, u))

	current := svc.Current()
	require.NotNil(t, current)
	assert.Equal(t, u.ID, current.ID)
	assert.Nil(t, current.Password)

	restored, err := NewSessionService(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, restored.Current())
	assert.Equal(t, "Suresh", restored.Current().Name)

	require.NoError(t, svc.SignOut(ctx))
	assert.Nil(t, svc.Current())
	_, ok, err := raw.Get(ctx, localcache.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionService_UpdateIfActive(t *testing.T) {
	ctx := context.Background()
	store := localcache.NewSessionStore(localstore.NewMemoryStore())
	svc, err := NewSessionService(ctx, store)
	require.NoError(t, err)

	// no session: no-op
	require.NoError(t, svc.UpdateIfActive(ctx, user.RemoteID("c1"), func(u *user.User) { u.Name = "x" }))
	assert.Nil(t, svc.Current())

	require.NoError(t, svc.SignIn(ctx, user.User{ID: user.RemoteID("c1"), Name: "Suresh", Role: user.RoleContractor}))

	// other user: untouched
	require.NoError(t, svc.UpdateIfActive(ctx, user.RemoteID("w1"), func(u *user.User) { u.Name = "x" }))
	assert.Equal(t, "Suresh", svc.Current().Name)

	code := "AB12CD"
	require.NoError(t, svc.UpdateIfActive(ctx, user.RemoteID("c1"), func(u *user.User) { u.ContractorCode = &code }))
	require.NotNil(t, svc.Current().ContractorCode)
	assert.Equal(t, "AB12CD", *svc.Current().ContractorCode)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted.ContractorCode)
	assert.Equal(t, "AB12CD", *persisted.ContractorCode)
}
