package memory

import (
	"context"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

type userRepository struct {
	s *Store
}

func cloneUser(u user.User) *user.User {
	c := u
	c.Password = cloneString(u.Password)
	c.Skill = cloneString(u.Skill)
	c.LinkedContractorCode = cloneString(u.LinkedContractorCode)
	c.CompanyName = cloneString(u.CompanyName)
	c.ContractorCode = cloneString(u.ContractorCode)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *userRepository) GetByMobile(ctx context.Context, mobile string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "users.GetByMobile"); err != nil {
		return nil, err
	}
	for _, id := range r.s.userOrder {
		if u := r.s.users[id]; u.Mobile == mobile {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByID(ctx context.Context, id user.ID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id.String()]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetContractorByCode(ctx context.Context, code string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "users.GetContractorByCode"); err != nil {
		return nil, err
	}
	for _, id := range r.s.userOrder {
		u := r.s.users[id]
		if u.Role == user.RoleContractor && u.ContractorCode != nil && *u.ContractorCode == code {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "users.Create"); err != nil {
		return user.User{}, err
	}
	newUser.ID = user.RemoteID(newID())
	if newUser.CreatedAt.IsZero() {
		newUser.CreatedAt = time.Now().UTC()
	}
	r.s.users[newUser.ID.String()] = *cloneUser(newUser)
	r.s.userOrder = append(r.s.userOrder, newUser.ID.String())
	return newUser, nil
}

func (r *userRepository) update(ctx context.Context, op string, id user.ID, mutate func(*user.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, op); err != nil {
		return err
	}
	u, ok := r.s.users[id.String()]
	if !ok {
		return user.ErrUserNotFound
	}
	mutate(&u)
	r.s.users[id.String()] = u
	return nil
}

func (r *userRepository) UpdateContractorCode(ctx context.Context, id user.ID, code string) error {
	return r.update(ctx, "users.UpdateContractorCode", id, func(u *user.User) {
		u.ContractorCode = &code
	})
}

func (r *userRepository) UpdateLinkedContractorCode(ctx context.Context, id user.ID, code string) error {
	return r.update(ctx, "users.UpdateLinkedContractorCode", id, func(u *user.User) {
		u.LinkedContractorCode = &code
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id user.ID, passwordHash string) error {
	return r.update(ctx, "users.UpdatePassword", id, func(u *user.User) {
		u.Password = &passwordHash
	})
}
