package relation

import (
	"context"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

type RelationService interface {
	// AssignWorkerToContractor reports false when no contractor owns the code.
	AssignWorkerToContractor(ctx context.Context, workerID user.ID, code string) (bool, error)
	GetWorkersByContractor(ctx context.Context, contractorID user.ID) ([]user.User, error)
	// RebuildRelations recreates cached relations from cached workers' linked codes.
	RebuildRelations(ctx context.Context) (int, error)
}
