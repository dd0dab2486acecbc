package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
)

type attendanceRepository struct {
	s *Store
}

func attendanceKey(userID, date string) string {
	return userID + "|" + date
}

func (r *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date string) (*attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "attendance.GetByUserAndDate"); err != nil {
		return nil, err
	}
	rec, ok := r.s.attendance[attendanceKey(userID, date)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "attendance.Create"); err != nil {
		return attendance.Record{}, err
	}
	now := time.Now().UTC()
	rec.ID = newID()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.s.attendance[attendanceKey(rec.UserID, rec.Date)] = rec
	return rec, nil
}

func (r *attendanceRepository) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "attendance.Update"); err != nil {
		return attendance.Record{}, err
	}
	key := attendanceKey(rec.UserID, rec.Date)
	existing, ok := r.s.attendance[key]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	existing.Type = rec.Type
	existing.PaymentAmount = rec.PaymentAmount
	existing.UpdatedAt = time.Now().UTC()
	r.s.attendance[key] = existing
	return existing, nil
}

func (r *attendanceRepository) ListByUser(ctx context.Context, userID string, rng attendance.DateRange) ([]attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "attendance.ListByUser"); err != nil {
		return nil, err
	}
	if r.s.needIndex && (rng.Start != "" || rng.End != "") {
		return nil, remote.ErrIndexRequired
	}
	var out []attendance.Record
	for _, rec := range r.s.attendance {
		if rec.UserID == userID && rng.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *attendanceRepository) ListAllByUser(ctx context.Context, userID string) ([]attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(ctx, "attendance.ListAllByUser"); err != nil {
		return nil, err
	}
	var out []attendance.Record
	for _, rec := range r.s.attendance {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
