package relation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/dualstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
)

type RelationServiceImpl struct {
	remote      relation.RemoteRepository
	cache       relation.CacheRepository
	remoteUsers user.RemoteRepository
	cacheUsers  user.CacheRepository
	prober      remote.Prober
	queue       syncqueue.Enqueuer
	session     session.Updater
	now         func() time.Time
}

func NewRelationService(
	remoteRepo relation.RemoteRepository,
	cacheRepo relation.CacheRepository,
	remoteUsers user.RemoteRepository,
	cacheUsers user.CacheRepository,
	prober remote.Prober,
	queue syncqueue.Enqueuer,
	sessions session.Updater,
) relation.RelationService {
	return &RelationServiceImpl{
		remote:      remoteRepo,
		cache:       cacheRepo,
		remoteUsers: remoteUsers,
		cacheUsers:  cacheUsers,
		prober:      prober,
		queue:       queue,
		session:     sessions,
		now:         time.Now,
	}
}

func newLocalRelationID() string {
	return "local_" + uuid.Must(uuid.NewV7()).String()
}

// AssignWorkerToContractor implements relation.RelationService. Linking
// twice to the same contractor is a no-op; linking to another contractor
// re-points the worker and keeps the old relation.
func (s *RelationServiceImpl) AssignWorkerToContractor(ctx context.Context, workerID user.ID, code string) (bool, error) {
	code = user.NormalizeContractorCode(code)
	if !validator.IsValidContractorCode(code) {
		return false, relation.ErrInvalidContractorCode
	}

	if workerID.IsLocal() {
		return s.assignLocal(ctx, workerID, code)
	}
	if err := s.prober.Probe(ctx); err != nil {
		slog.InfoContext(ctx, "remote store unreachable, linking locally", "error", err)
		return s.assignLocal(ctx, workerID, code)
	}

	contractor, err := s.remoteUsers.GetContractorByCode(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "remote contractor lookup failed, linking locally", "error", err)
		return s.assignLocal(ctx, workerID, code)
	}
	if contractor == nil {
		return s.assignLocal(ctx, workerID, code)
	}

	rel, err := s.assignRemote(ctx, contractor.ID.String(), workerID, code)
	if err != nil {
		slog.WarnContext(ctx, "remote link failed, linking locally", "worker_id", workerID.String(), "error", err)
		return s.assignLocal(ctx, workerID, code)
	}

	if err := s.cacheUsers.Put(ctx, *contractor); err != nil {
		slog.WarnContext(ctx, "failed to cache contractor", "error", err)
	}
	if err := s.cache.Put(ctx, rel); err != nil {
		slog.WarnContext(ctx, "failed to cache relation", "error", err)
	}
	if err := s.linkCachedWorker(ctx, workerID, code); err != nil {
		return false, err
	}

	if err := s.queue.Discard(ctx, syncqueue.OpAssignWorker, workerID.String()); err != nil {
		slog.WarnContext(ctx, "failed to drop superseded link", "worker_id", workerID.String(), "error", err)
	}

	slog.InfoContext(ctx, "worker linked to contractor", "worker_id", workerID.String(), "contractor_id", rel.ContractorID, "remote", true)
	return true, nil
}

func (s *RelationServiceImpl) assignRemote(ctx context.Context, contractorID string, workerID user.ID, code string) (relation.Relation, error) {
	existing, err := s.remote.GetByPair(ctx, contractorID, workerID.String())
	if err != nil {
		return relation.Relation{}, err
	}

	rel := relation.Relation{}
	if existing != nil {
		rel = *existing
	} else {
		rel, err = s.remote.Create(ctx, relation.Relation{
			ContractorID:   contractorID,
			WorkerID:       workerID.String(),
			ContractorCode: code,
			CreatedAt:      s.now().UTC(),
		})
		if err != nil {
			return relation.Relation{}, err
		}
	}

	if err := s.remoteUsers.UpdateLinkedContractorCode(ctx, workerID, code); err != nil {
		return relation.Relation{}, err
	}
	return rel, nil
}

// assignLocal resolves the contractor from the cache, with one remote lookup
// when it is not cached, and records the link in the cache.
func (s *RelationServiceImpl) assignLocal(ctx context.Context, workerID user.ID, code string) (bool, error) {
	contractor, err := s.findCachedContractor(ctx, code)
	if err != nil {
		return false, err
	}
	if contractor == nil {
		contractor, err = s.remoteUsers.GetContractorByCode(ctx, code)
		if err != nil {
			slog.WarnContext(ctx, "remote contractor lookup failed", "error", err)
			contractor = nil
		}
		if contractor != nil {
			if err := s.cacheUsers.Put(ctx, *contractor); err != nil {
				slog.WarnContext(ctx, "failed to cache contractor", "error", err)
			}
		}
	}
	if contractor == nil {
		slog.InfoContext(ctx, "no contractor owns code", "contractor_code", code)
		return false, nil
	}

	contractorID := contractor.ID.String()
	existing, err := s.cache.Get(ctx, contractorID, workerID.String())
	if err != nil {
		return false, fmt.Errorf("failed to read cached relation: %w", err)
	}
	linkedAt := s.now().UTC()
	if existing == nil {
		rel := relation.Relation{
			ID:             newLocalRelationID(),
			ContractorID:   contractorID,
			WorkerID:       workerID.String(),
			ContractorCode: code,
			CreatedAt:      linkedAt,
		}
		if err := s.cache.Put(ctx, rel); err != nil {
			return false, fmt.Errorf("failed to save relation locally: %w", err)
		}
	} else {
		linkedAt = existing.CreatedAt
	}
	if err := s.linkCachedWorker(ctx, workerID, code); err != nil {
		return false, err
	}

	if !workerID.IsLocal() {
		payload := syncqueue.AssignWorkerPayload{WorkerID: workerID.String(), ContractorCode: code, LinkedAt: linkedAt}
		if err := s.queue.Enqueue(ctx, syncqueue.OpAssignWorker, payload); err != nil {
			slog.ErrorContext(ctx, "failed to queue link for sync", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker linked to contractor", "worker_id", workerID.String(), "contractor_id", contractorID, "remote", false)
	return true, nil
}

func (s *RelationServiceImpl) findCachedContractor(ctx context.Context, code string) (*user.User, error) {
	users, err := s.cacheUsers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached users: %w", err)
	}
	for i := range users {
		u := users[i]
		if u.IsContractor() && u.HasContractorCode() && *u.ContractorCode == code {
			return &u, nil
		}
	}
	return nil, nil
}

// linkCachedWorker sets the worker's active contractor code in the cache
// and in the session. A worker missing from the cache is left alone.
func (s *RelationServiceImpl) linkCachedWorker(ctx context.Context, workerID user.ID, code string) error {
	worker, err := s.cacheUsers.Get(ctx, workerID)
	if err != nil {
		return fmt.Errorf("failed to read cached worker: %w", err)
	}
	if worker != nil {
		worker.LinkedContractorCode = &code
		if err := s.cacheUsers.Put(ctx, *worker); err != nil {
			return fmt.Errorf("failed to save worker locally: %w", err)
		}
	}
	if err := s.session.UpdateIfActive(ctx, workerID, func(active *user.User) { active.LinkedContractorCode = &code }); err != nil {
		slog.WarnContext(ctx, "failed to update session", "error", err)
	}
	return nil
}

// linkedWorker is one relation with its worker resolved. Worker is nil when
// the worker record is missing.
type linkedWorker struct {
	rel    relation.Relation
	worker *user.User
}

// GetWorkersByContractor implements relation.RelationService. Only workers
// whose active link is this contractor's code are listed. A remote answer
// that has relations is used even when every worker has moved on, and all
// of its workers are mirrored so the cache learns about the moves too.
func (s *RelationServiceImpl) GetWorkersByContractor(ctx context.Context, contractorID user.ID) ([]user.User, error) {
	var remoteList dualstore.RemoteFunc[[]linkedWorker]
	if !contractorID.IsLocal() {
		remoteList = func(ctx context.Context) ([]linkedWorker, error) {
			relations, err := s.remote.ListByContractor(ctx, contractorID.String())
			if err != nil {
				return nil, err
			}
			links := make([]linkedWorker, 0, len(relations))
			for _, rel := range relations {
				worker, err := s.remoteUsers.GetByID(ctx, user.ParseID(rel.WorkerID))
				if err != nil {
					return nil, err
				}
				if worker != nil {
					s.applyPendingLink(worker)
				}
				links = append(links, linkedWorker{rel: rel, worker: worker})
			}
			return links, nil
		}
	}

	links, err := dualstore.ReadMany(ctx, "getWorkersByContractor", remoteList, s.mirrorLink,
		func(ctx context.Context) ([]linkedWorker, error) {
			relations, err := s.cache.ListByContractor(ctx, contractorID.String())
			if err != nil {
				return nil, err
			}
			links := make([]linkedWorker, 0, len(relations))
			for _, rel := range relations {
				worker, err := s.cacheUsers.Get(ctx, user.ParseID(rel.WorkerID))
				if err != nil {
					return nil, err
				}
				links = append(links, linkedWorker{rel: rel, worker: worker})
			}
			return links, nil
		})
	if err != nil {
		return nil, err
	}

	workers := make([]user.User, 0, len(links))
	for _, link := range links {
		if link.worker != nil && isActiveLink(link.worker, link.rel) {
			workers = append(workers, *link.worker)
		}
	}
	return workers, nil
}

// applyPendingLink keeps a link that is still waiting for sync.
func (s *RelationServiceImpl) applyPendingLink(worker *user.User) {
	raw, ok := s.queue.Pending(syncqueue.OpAssignWorker, worker.ID.String())
	if !ok {
		return
	}
	var p syncqueue.AssignWorkerPayload
	if err := json.Unmarshal(raw, &p); err == nil && p.ContractorCode != "" {
		worker.LinkedContractorCode = &p.ContractorCode
	}
}

func (s *RelationServiceImpl) mirrorLink(ctx context.Context, link linkedWorker) error {
	if err := s.cache.Put(ctx, link.rel); err != nil {
		return err
	}
	if link.worker == nil {
		return nil
	}
	return s.cacheUsers.Put(ctx, *link.worker)
}

// isActiveLink reports whether rel is the worker's current link. Workers
// that carry no linked code yet count as linked.
func isActiveLink(worker *user.User, rel relation.Relation) bool {
	if worker.LinkedContractorCode == nil || *worker.LinkedContractorCode == "" {
		return true
	}
	return *worker.LinkedContractorCode == rel.ContractorCode
}

// RebuildRelations implements relation.RelationService.
func (s *RelationServiceImpl) RebuildRelations(ctx context.Context) (int, error) {
	users, err := s.cacheUsers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cached users: %w", err)
	}

	contractors := make(map[string]user.User)
	for _, u := range users {
		if u.IsContractor() && u.HasContractorCode() {
			contractors[*u.ContractorCode] = u
		}
	}

	removed, err := s.cache.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to drop cached relations: %w", err)
	}

	created := 0
	for _, worker := range users {
		if !worker.IsWorker() || worker.LinkedContractorCode == nil {
			continue
		}
		contractor, ok := contractors[*worker.LinkedContractorCode]
		if !ok {
			continue
		}
		rel := relation.Relation{
			ID:             newLocalRelationID(),
			ContractorID:   contractor.ID.String(),
			WorkerID:       worker.ID.String(),
			ContractorCode: *worker.LinkedContractorCode,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.cache.Put(ctx, rel); err != nil {
			return created, fmt.Errorf("failed to save relation locally: %w", err)
		}
		created++
	}

	slog.InfoContext(ctx, "relations rebuilt", "removed", removed, "created", created)
	return created, nil
}
