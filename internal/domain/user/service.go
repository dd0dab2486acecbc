package user

import (
	"context"
)

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (ID, error)
	AuthenticateUser(ctx context.Context, mobile string, password string) (*User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*User, error)
	GetUserByID(ctx context.Context, id ID) (*User, error)
	EnsureContractorCode(ctx context.Context, id ID) (string, error)
	SetPassword(ctx context.Context, id ID, password string) error
}
