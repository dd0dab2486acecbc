// Package dihaadi converts attendance marks into daily-wage units. A full
// working day of 8 hours is one dihaadi.
package dihaadi

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
)

// Units returns the dihaadi units of an attendance type. Unknown types count as 0.
func Units(t attendance.Type) float64 {
	switch t {
	case attendance.TypeAbsent:
		return 0
	case attendance.TypeHalfDay:
		return 0.5
	case attendance.TypeFullDay:
		return 1
	case attendance.TypeOneAndHalfDay:
		return 1.5
	case attendance.TypeDoubleDay:
		return 2
	default:
		return 0
	}
}

// FormatUnits renders units the way the calendar shows them, e.g. "1½P".
func FormatUnits(units float64) string {
	switch units {
	case 0:
		return "0"
	case 0.5:
		return "1/2P"
	case 1:
		return "1P"
	case 1.5:
		return "1½P"
	case 2:
		return "2P"
	}

	whole, frac := math.Modf(units)
	switch frac {
	case 0:
		return fmt.Sprintf("%dP", int64(whole))
	case 0.5:
		return fmt.Sprintf("%d½P", int64(whole))
	default:
		return strconv.FormatFloat(units, 'f', -1, 64) + "P"
	}
}

// Description returns the human-readable label of an attendance type.
func Description(t attendance.Type) string {
	switch t {
	case attendance.TypeAbsent:
		return "Absent (0 hours)"
	case attendance.TypeHalfDay:
		return "Half Day (4 hours)"
	case attendance.TypeFullDay:
		return "Full Day (8 hours)"
	case attendance.TypeOneAndHalfDay:
		return "One & Half Day (12 hours)"
	case attendance.TypeDoubleDay:
		return "Double Day (16 hours)"
	default:
		return string(t)
	}
}

func TotalUnits(records []attendance.Record) float64 {
	var total float64
	for _, r := range records {
		total += Units(r.Type)
	}
	return total
}

// MonthlyStats summarises the records dated between start and end, both
// inclusive. Dates are compared as calendar days in YYYY-MM-DD form.
func MonthlyStats(records []attendance.Record, start, end string) attendance.MonthlyStats {
	rng := attendance.DateRange{Start: start, End: end}

	var stats attendance.MonthlyStats
	for _, r := range records {
		if !rng.Contains(r.Date) {
			continue
		}
		stats.TotalDays++
		if r.Type != attendance.TypeAbsent {
			stats.PresentDays++
		}
		stats.TotalPayments += r.PaymentAmount
		stats.TotalDihaadiUnits += Units(r.Type)
	}
	stats.FormattedDihaadiUnits = FormatUnits(stats.TotalDihaadiUnits)
	return stats
}

// MonthRange returns the first and last day of a YYYY-MM month.
func MonthRange(month string) (start, end string, err error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	last := first.AddDate(0, 1, -1)
	return first.Format(attendance.DateLayout), last.Format(attendance.DateLayout), nil
}
