package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db           *database.DB
	rangeTimeout time.Duration
}

// NewAttendanceRepository returns the attendance repository. Range queries
// that run longer than rangeTimeout are reported as remote.ErrIndexRequired.
func NewAttendanceRepository(db *database.DB, rangeTimeout time.Duration) attendance.RemoteRepository {
	return &attendanceRepository{db: db, rangeTimeout: rangeTimeout}
}

const attendanceColumns = `id::text, user_id::text, to_char(date, 'YYYY-MM-DD'), type, payment_amount, created_at, updated_at`

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Date,
		&rec.Type,
		&rec.PaymentAmount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

func collectAttendance(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByUserAndDate implements attendance.RemoteRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1 AND date = $2::date`

	rec, err := scanAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &rec, nil
}

// Create implements attendance.RemoteRepository.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (user_id, date, type, payment_amount)
		VALUES ($1, $2::date, $3, $4)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query, rec.UserID, rec.Date, rec.Type, rec.PaymentAmount))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// Update implements attendance.RemoteRepository. created_at is never touched.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET type = $1, payment_amount = $2, updated_at = NOW()
		WHERE user_id = $3 AND date = $4::date
		RETURNING ` + attendanceColumns

	updated, err := scanAttendance(q.QueryRow(ctx, query, rec.Type, rec.PaymentAmount, rec.UserID, rec.Date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	return updated, nil
}

// ListByUser implements attendance.RemoteRepository.
func (a *attendanceRepository) ListByUser(ctx context.Context, userID string, rng attendance.DateRange) ([]attendance.Record, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1`)
	args := []any{userID}
	if rng.Start != "" {
		args = append(args, rng.Start)
		fmt.Fprintf(&sb, " AND date >= $%d::date", len(args))
	}
	if rng.End != "" {
		args = append(args, rng.End)
		fmt.Fprintf(&sb, " AND date <= $%d::date", len(args))
	}
	sb.WriteString(" ORDER BY date DESC")

	var records []attendance.Record
	err := withStatementTimeout(ctx, a.db, a.rangeTimeout, func(ctx context.Context, q database.Querier) error {
		rows, err := q.Query(ctx, sb.String(), args...)
		if err != nil {
			return err
		}
		records, err = collectAttendance(rows)
		return err
	})
	if err != nil {
		if hasCode(err, codeQueryCanceled) {
			return nil, fmt.Errorf("attendance range query: %w", remote.ErrIndexRequired)
		}
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// ListAllByUser implements attendance.RemoteRepository.
func (a *attendanceRepository) ListAllByUser(ctx context.Context, userID string) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	records, err := collectAttendance(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance: %w", err)
	}
	return records, nil
}
