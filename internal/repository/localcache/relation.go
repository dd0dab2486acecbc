package localcache

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

type relationRepository struct {
	store localstore.Store
}

func NewRelationRepository(store localstore.Store) relation.CacheRepository {
	return &relationRepository{store: store}
}

func relationKey(contractorID, workerID string) string {
	return relationKeyPrefix + contractorID + "_" + workerID
}

func (r *relationRepository) Get(ctx context.Context, contractorID, workerID string) (*relation.Relation, error) {
	rel, err := getJSON[relation.Relation](ctx, r.store, relationKey(contractorID, workerID))
	if err != nil {
		return nil, fmt.Errorf("localcache: get relation %s %s: %w", contractorID, workerID, err)
	}
	return rel, nil
}

func (r *relationRepository) Put(ctx context.Context, rel relation.Relation) error {
	if err := putJSON(ctx, r.store, relationKey(rel.ContractorID, rel.WorkerID), rel); err != nil {
		return fmt.Errorf("localcache: put relation %s %s: %w", rel.ContractorID, rel.WorkerID, err)
	}
	return nil
}

func (r *relationRepository) List(ctx context.Context) ([]relation.Relation, error) {
	rels, err := scanJSON[relation.Relation](ctx, r.store, relationKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("localcache: list relations: %w", err)
	}
	return rels, nil
}

func (r *relationRepository) ListByContractor(ctx context.Context, contractorID string) ([]relation.Relation, error) {
	rels, err := scanJSON[relation.Relation](ctx, r.store, relationKeyPrefix+contractorID+"_")
	if err != nil {
		return nil, fmt.Errorf("localcache: list relations of %s: %w", contractorID, err)
	}
	out := rels[:0]
	for _, rel := range rels {
		if rel.ContractorID == contractorID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *relationRepository) DeleteAll(ctx context.Context) (int, error) {
	items, err := r.store.Scan(ctx, relationKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("localcache: list relations: %w", err)
	}
	for i, item := range items {
		if err := r.store.Delete(ctx, item.Key); err != nil {
			return i, fmt.Errorf("localcache: delete %s: %w", item.Key, err)
		}
	}
	return len(items), nil
}
