package localcache

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/localstore"
)

type attendanceRepository struct {
	store localstore.Store
}

func NewAttendanceRepository(store localstore.Store) attendance.CacheRepository {
	return &attendanceRepository{store: store}
}

func attendanceKey(userID, date string) string {
	return attendanceKeyPrefix + userID + "_" + date
}

func (r *attendanceRepository) Get(ctx context.Context, userID string, date string) (*attendance.Record, error) {
	rec, err := getJSON[attendance.Record](ctx, r.store, attendanceKey(userID, date))
	if err != nil {
		return nil, fmt.Errorf("localcache: get attendance %s %s: %w", userID, date, err)
	}
	return rec, nil
}

func (r *attendanceRepository) Put(ctx context.Context, rec attendance.Record) error {
	if err := putJSON(ctx, r.store, attendanceKey(rec.UserID, rec.Date), rec); err != nil {
		return fmt.Errorf("localcache: put attendance %s %s: %w", rec.UserID, rec.Date, err)
	}
	return nil
}

// ListByUser returns the user's cached records in insertion order.
func (r *attendanceRepository) ListByUser(ctx context.Context, userID string) ([]attendance.Record, error) {
	records, err := scanJSON[attendance.Record](ctx, r.store, attendanceKeyPrefix+userID+"_")
	if err != nil {
		return nil, fmt.Errorf("localcache: list attendance %s: %w", userID, err)
	}
	// the key prefix alone also matches ids that extend userID
	out := records[:0]
	for _, rec := range records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *attendanceRepository) List(ctx context.Context) ([]attendance.Record, error) {
	records, err := scanJSON[attendance.Record](ctx, r.store, attendanceKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("localcache: list attendance: %w", err)
	}
	return records, nil
}
