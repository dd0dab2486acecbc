package localcache

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

type userRepository struct {
	store localstore.Store
}

func NewUserRepository(store localstore.Store) user.CacheRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Get(ctx context.Context, id user.ID) (*user.User, error) {
	u, err := getJSON[user.User](ctx, r.store, userKeyPrefix+id.String())
	if err != nil {
		return nil, fmt.Errorf("localcache: get user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepository) GetByMobile(ctx context.Context, mobile string) (*user.User, error) {
	id, ok, err := r.store.Get(ctx, mobileKeyPrefix+mobile)
	if err != nil {
		return nil, fmt.Errorf("localcache: get mobile index %s: %w", mobile, err)
	}
	if !ok {
		return nil, nil
	}
	return r.Get(ctx, user.ParseID(id))
}

// Put writes the record and points the mobile index at it.
func (r *userRepository) Put(ctx context.Context, u user.User) error {
	if err := putJSON(ctx, r.store, userKeyPrefix+u.ID.String(), u); err != nil {
		return fmt.Errorf("localcache: put user %s: %w", u.ID, err)
	}
	if err := r.store.Set(ctx, mobileKeyPrefix+u.Mobile, u.ID.String()); err != nil {
		return fmt.Errorf("localcache: put mobile index %s: %w", u.Mobile, err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]user.User, error) {
	users, err := scanJSON[user.User](ctx, r.store, userKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("localcache: list users: %w", err)
	}
	return users, nil
}
