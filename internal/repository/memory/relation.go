package memory

import (
	"context"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
)

type relationRepository struct {
	s *Store
}

func (r *relationRepository) GetByPair(ctx context.Context, contractorID, workerID string) (*relation.Relation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "relations.GetByPair"); err != nil {
		return nil, err
	}
	for _, rel := range r.s.relations {
		if rel.ContractorID == contractorID && rel.WorkerID == workerID {
			found := rel
			return &found, nil
		}
	}
	return nil, nil
}

func (r *relationRepository) Create(ctx context.Context, rel relation.Relation) (relation.Relation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "relations.Create"); err != nil {
		return relation.Relation{}, err
	}
	rel.ID = newID()
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	r.s.relations = append(r.s.relations, rel)
	return rel, nil
}

func (r *relationRepository) ListByContractor(ctx context.Context, contractorID string) ([]relation.Relation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "relations.ListByContractor"); err != nil {
		return nil, err
	}
	var out []relation.Relation
	for _, rel := range r.s.relations {
		if rel.ContractorID == contractorID {
			out = append(out, rel)
		}
	}
	return out, nil
}
