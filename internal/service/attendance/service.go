package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/dualstore"
	"github.com/shramsathi/shramsathi-backend-go/internal/service/dihaadi"
)

type AttendanceServiceImpl struct {
	remote attendance.RemoteRepository
	cache  attendance.CacheRepository
	prober remote.Prober
	queue  syncqueue.Enqueuer
	now    func() time.Time
}

func NewAttendanceService(
	remoteRepo attendance.RemoteRepository,
	cacheRepo attendance.CacheRepository,
	prober remote.Prober,
	queue syncqueue.Enqueuer,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		remote: remoteRepo,
		cache:  cacheRepo,
		prober: prober,
		queue:  queue,
		now:    time.Now,
	}
}

// SaveAttendance implements attendance.AttendanceService. There is at most
// one record per user and date; saving again overwrites type and amount
// and keeps the original CreatedAt.
func (s *AttendanceServiceImpl) SaveAttendance(ctx context.Context, req attendance.SaveAttendanceRequest) (attendance.SaveResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.SaveResult{}, err
	}

	uid := user.ParseID(req.UserID)
	rec := attendance.Record{
		UserID:        req.UserID,
		Date:          req.Date,
		Type:          attendance.Type(req.Type),
		PaymentAmount: req.Amount(),
	}

	var remoteSave dualstore.RemoteFunc[attendance.Record]
	remoteWritable := false
	if !uid.IsLocal() {
		if err := s.prober.Probe(ctx); err != nil {
			slog.InfoContext(ctx, "remote store unreachable, saving attendance locally", "error", err)
		} else {
			remoteWritable = true
			remoteSave = func(ctx context.Context) (attendance.Record, error) {
				existing, err := s.remote.GetByUserAndDate(ctx, rec.UserID, rec.Date)
				if err != nil {
					return attendance.Record{}, err
				}
				if existing != nil {
					return s.remote.Update(ctx, rec)
				}
				return s.remote.Create(ctx, rec)
			}
		}
	}

	saved, outcome, err := dualstore.Write(ctx, "saveAttendance", remoteSave, s.cache.Put,
		func(ctx context.Context) (attendance.Record, error) { return s.saveLocal(ctx, rec) })
	if err != nil {
		return attendance.SaveResult{}, err
	}

	result := attendance.SaveResult{Success: true, Record: saved}
	key := syncqueue.AttendanceKey(rec.UserID, rec.Date)
	if outcome.Remote {
		// an older offline save for this day must not be replayed over this one
		if err := s.queue.Discard(ctx, syncqueue.OpSaveAttendance, key); err != nil {
			slog.WarnContext(ctx, "failed to drop superseded attendance sync", "key", key, "error", err)
		}
		return result, nil
	}

	if remoteWritable && outcome.RemoteErr != nil {
		result.Warning = fmt.Sprintf("Remote store failed (%v), saved locally", outcome.RemoteErr)
	}
	if !uid.IsLocal() {
		payload := syncqueue.SaveAttendancePayload{
			UserID:        rec.UserID,
			Date:          rec.Date,
			Type:          string(rec.Type),
			PaymentAmount: rec.PaymentAmount,
			UpdatedAt:     saved.UpdatedAt,
		}
		if err := s.queue.Enqueue(ctx, syncqueue.OpSaveAttendance, payload); err != nil {
			slog.ErrorContext(ctx, "failed to queue attendance for sync", "error", err)
		}
	}
	return result, nil
}

func (s *AttendanceServiceImpl) saveLocal(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	now := s.now().UTC()

	existing, err := s.cache.Get(ctx, rec.UserID, rec.Date)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to read cached attendance: %w", err)
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = "local_" + uuid.Must(uuid.NewV7()).String()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if err := s.cache.Put(ctx, rec); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to save attendance locally: %w", err)
	}
	return rec, nil
}

// GetAttendanceByUser implements attendance.AttendanceService. Records are
// returned newest first and always within rng.
func (s *AttendanceServiceImpl) GetAttendanceByUser(ctx context.Context, userID string, rng attendance.DateRange) ([]attendance.Record, error) {
	var remoteList dualstore.RemoteFunc[[]attendance.Record]
	if !user.ParseID(userID).IsLocal() {
		remoteList = func(ctx context.Context) ([]attendance.Record, error) {
			records, err := s.remote.ListByUser(ctx, userID, rng)
			if !errors.Is(err, remote.ErrIndexRequired) {
				return records, err
			}
			slog.InfoContext(ctx, "range query needs an index, filtering in process", "user_id", userID)
			all, err := s.remote.ListAllByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			return filterAndSort(all, rng), nil
		}
	}

	return dualstore.ReadMany(ctx, "getAttendanceByUser", remoteList, s.cache.Put,
		func(ctx context.Context) ([]attendance.Record, error) {
			cached, err := s.cache.ListByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			return filterAndSort(cached, rng), nil
		})
}

func filterAndSort(records []attendance.Record, rng attendance.DateRange) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// GetMonthlyStats implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMonthlyStats(ctx context.Context, userID string, month string) (attendance.MonthlyStatsResponse, error) {
	start, end, err := dihaadi.MonthRange(month)
	if err != nil {
		return attendance.MonthlyStatsResponse{}, attendance.ErrInvalidDate
	}

	records, err := s.GetAttendanceByUser(ctx, userID, attendance.DateRange{Start: start, End: end})
	if err != nil {
		return attendance.MonthlyStatsResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return attendance.MonthlyStatsResponse{
		Month:     month,
		StartDate: start,
		EndDate:   end,
		Stats:     dihaadi.MonthlyStats(records, start, end),
	}, nil
}
