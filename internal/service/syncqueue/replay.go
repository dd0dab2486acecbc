package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
)

// NewReplayers returns a replayer for every operation the data access layer
// queues. Each replay is an upsert, so replaying an entry twice is harmless.
// An attendance replay never overwrites a remote record updated after it.
func NewReplayers(users user.RemoteRepository, records attendance.RemoteRepository, relations relation.RemoteRepository) map[syncqueue.Operation]Replayer {
	return map[syncqueue.Operation]Replayer{
		syncqueue.OpSaveAttendance:       replaySaveAttendance(records),
		syncqueue.OpUpdateContractorCode: replayUpdateContractorCode(users),
		syncqueue.OpAssignWorker:         replayAssignWorker(users, relations),
		syncqueue.OpSetPassword:          replaySetPassword(users),
	}
}

func decode[T any](op syncqueue.Operation, payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", op, err)
	}
	return v, nil
}

func replaySaveAttendance(records attendance.RemoteRepository) Replayer {
	return func(ctx context.Context, payload json.RawMessage) error {
		p, err := decode[syncqueue.SaveAttendancePayload](syncqueue.OpSaveAttendance, payload)
		if err != nil {
			return err
		}
		rec := attendance.Record{
			UserID:        p.UserID,
			Date:          p.Date,
			Type:          attendance.Type(p.Type),
			PaymentAmount: p.PaymentAmount,
		}
		existing, err := records.GetByUserAndDate(ctx, p.UserID, p.Date)
		if err != nil {
			return err
		}
		if existing != nil && !p.UpdatedAt.IsZero() && existing.UpdatedAt.After(p.UpdatedAt) {
			slog.InfoContext(ctx, "queued attendance older than remote record, dropped",
				"user_id", p.UserID, "date", p.Date, "remote_updated_at", existing.UpdatedAt)
			return nil
		}
		if existing != nil {
			_, err = records.Update(ctx, rec)
		} else {
			_, err = records.Create(ctx, rec)
		}
		return err
	}
}

func replayUpdateContractorCode(users user.RemoteRepository) Replayer {
	return func(ctx context.Context, payload json.RawMessage) error {
		p, err := decode[syncqueue.UpdateContractorCodePayload](syncqueue.OpUpdateContractorCode, payload)
		if err != nil {
			return err
		}
		return users.UpdateContractorCode(ctx, user.ParseID(p.UserID), p.ContractorCode)
	}
}

func replayAssignWorker(users user.RemoteRepository, relations relation.RemoteRepository) Replayer {
	return func(ctx context.Context, payload json.RawMessage) error {
		p, err := decode[syncqueue.AssignWorkerPayload](syncqueue.OpAssignWorker, payload)
		if err != nil {
			return err
		}
		contractor, err := users.GetContractorByCode(ctx, p.ContractorCode)
		if err != nil {
			return err
		}
		if contractor == nil {
			// nothing to link against remotely; the cache keeps the local relation
			slog.WarnContext(ctx, "dropping queued link, contractor unknown to remote store", "contractor_code", p.ContractorCode)
			return nil
		}

		contractorID := contractor.ID.String()
		existing, err := relations.GetByPair(ctx, contractorID, p.WorkerID)
		if err != nil {
			return err
		}
		if existing == nil {
			if _, err := relations.Create(ctx, relation.Relation{
				ContractorID:   contractorID,
				WorkerID:       p.WorkerID,
				ContractorCode: p.ContractorCode,
				CreatedAt:      p.LinkedAt,
			}); err != nil {
				return err
			}
		}
		return users.UpdateLinkedContractorCode(ctx, user.ParseID(p.WorkerID), p.ContractorCode)
	}
}

func replaySetPassword(users user.RemoteRepository) Replayer {
	return func(ctx context.Context, payload json.RawMessage) error {
		p, err := decode[syncqueue.SetPasswordPayload](syncqueue.OpSetPassword, payload)
		if err != nil {
			return err
		}
		return users.UpdatePassword(ctx, user.ParseID(p.UserID), p.PasswordHash)
	}
}
