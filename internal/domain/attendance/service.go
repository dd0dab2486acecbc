package attendance

import (
	"context"
)

type AttendanceService interface {
	SaveAttendance(ctx context.Context, req SaveAttendanceRequest) (SaveResult, error)
	GetAttendanceByUser(ctx context.Context, userID string, rng DateRange) ([]Record, error)
	GetMonthlyStats(ctx context.Context, userID string, month string) (MonthlyStatsResponse, error)
}
