package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.RemoteRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id::text, mobile, name, role, password_hash, skill, linked_contractor_code,
		company_name, contractor_code, created_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var id string
	err := row.Scan(
		&id,
		&u.Mobile,
		&u.Name,
		&u.Role,
		&u.Password,
		&u.Skill,
		&u.LinkedContractorCode,
		&u.CompanyName,
		&u.ContractorCode,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.ID = user.RemoteID(id)
	return &u, nil
}

// GetByMobile implements user.RemoteRepository.
func (r *userRepositoryImpl) GetByMobile(ctx context.Context, mobile string) (*user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE mobile = $1 LIMIT 1`

	u, err := scanUser(q.QueryRow(ctx, query, mobile))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by mobile: %w", err)
	}
	return u, nil
}

// GetByID implements user.RemoteRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id user.ID) (*user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetContractorByCode implements user.RemoteRepository.
func (r *userRepositoryImpl) GetContractorByCode(ctx context.Context, code string) (*user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND contractor_code = $2 LIMIT 1`

	u, err := scanUser(q.QueryRow(ctx, query, user.RoleContractor, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get contractor by code: %w", err)
	}
	return u, nil
}

// Create implements user.RemoteRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (
			mobile, name, role, password_hash, skill, linked_contractor_code,
			company_name, contractor_code, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW())
		) RETURNING id::text, created_at
	`

	var createdAt any
	if !newUser.CreatedAt.IsZero() {
		createdAt = newUser.CreatedAt
	}

	var id string
	err := q.QueryRow(ctx, query,
		newUser.Mobile,
		newUser.Name,
		newUser.Role,
		newUser.Password,
		newUser.Skill,
		newUser.LinkedContractorCode,
		newUser.CompanyName,
		newUser.ContractorCode,
		createdAt,
	).Scan(&id, &newUser.CreatedAt)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return user.User{}, user.ErrMobileExists
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	newUser.ID = user.RemoteID(id)
	return newUser, nil
}

func (r *userRepositoryImpl) updateColumn(ctx context.Context, column string, id user.ID, value string) error {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`UPDATE users SET %s = $1, updated_at = NOW() WHERE id = $2`, column)

	tag, err := q.Exec(ctx, query, value, id.String())
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// UpdateContractorCode implements user.RemoteRepository.
func (r *userRepositoryImpl) UpdateContractorCode(ctx context.Context, id user.ID, code string) error {
	return r.updateColumn(ctx, "contractor_code", id, code)
}

// UpdateLinkedContractorCode implements user.RemoteRepository.
func (r *userRepositoryImpl) UpdateLinkedContractorCode(ctx context.Context, id user.ID, code string) error {
	return r.updateColumn(ctx, "linked_contractor_code", id, code)
}

// UpdatePassword implements user.RemoteRepository.
func (r *userRepositoryImpl) UpdatePassword(ctx context.Context, id user.ID, passwordHash string) error {
	return r.updateColumn(ctx, "password_hash", id, passwordHash)
}
