package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/database"
)

type relationRepository struct {
	db *database.DB
}

func NewRelationRepository(db *database.DB) relation.RemoteRepository {
	return &relationRepository{db: db}
}

const relationColumns = `id::text, contractor_id::text, worker_id::text, contractor_code, created_at`

func scanRelation(row pgx.Row) (relation.Relation, error) {
	var rel relation.Relation
	err := row.Scan(&rel.ID, &rel.ContractorID, &rel.WorkerID, &rel.ContractorCode, &rel.CreatedAt)
	return rel, err
}

// GetByPair implements relation.RemoteRepository.
func (r *relationRepository) GetByPair(ctx context.Context, contractorID, workerID string) (*relation.Relation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + relationColumns + ` FROM contractor_worker_relations
		WHERE contractor_id = $1 AND worker_id = $2`

	rel, err := scanRelation(q.QueryRow(ctx, query, contractorID, workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get relation: %w", err)
	}
	return &rel, nil
}

// Create implements relation.RemoteRepository. A concurrent insert of the same
// pair resolves to the existing row. A zero CreatedAt is stamped by the server.
func (r *relationRepository) Create(ctx context.Context, rel relation.Relation) (relation.Relation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO contractor_worker_relations (contractor_id, worker_id, contractor_code, created_at)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()))
		ON CONFLICT (contractor_id, worker_id) DO UPDATE SET contractor_code = EXCLUDED.contractor_code
		RETURNING ` + relationColumns

	var createdAt *time.Time
	if !rel.CreatedAt.IsZero() {
		createdAt = &rel.CreatedAt
	}

	created, err := scanRelation(q.QueryRow(ctx, query, rel.ContractorID, rel.WorkerID, rel.ContractorCode, createdAt))
	if err != nil {
		return relation.Relation{}, fmt.Errorf("failed to create relation: %w", err)
	}
	return created, nil
}

// ListByContractor implements relation.RemoteRepository.
func (r *relationRepository) ListByContractor(ctx context.Context, contractorID string) ([]relation.Relation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + relationColumns + ` FROM contractor_worker_relations
		WHERE contractor_id = $1 ORDER BY created_at`

	rows, err := q.Query(ctx, query, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}
	defer rows.Close()

	var rels []relation.Relation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}
