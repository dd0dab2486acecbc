package attendance

import (
	"time"
)

// Type is the attendance mark of a single day.
type Type string

const (
	TypeAbsent        Type = "A"
	TypeHalfDay       Type = "1/2P"
	TypeFullDay       Type = "P"
	TypeOneAndHalfDay Type = "P1/2"
	TypeDoubleDay     Type = "2P"
)

// Types lists every attendance type in calendar picker order.
var Types = []Type{TypeAbsent, TypeHalfDay, TypeFullDay, TypeOneAndHalfDay, TypeDoubleDay}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// DateLayout is the layout of Record.Date.
const DateLayout = "2006-01-02"

type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	Type          Type      `json:"type"`
	PaymentAmount int64     `json:"payment_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SaveResult reports the outcome of SaveAttendance. Warning is set when the
// record was kept locally because the remote write failed.
type SaveResult struct {
	Success bool
	Record  Record
	Warning string
}

type MonthlyStats struct {
	TotalDays             int     `json:"total_days"`
	PresentDays           int     `json:"present_days"`
	TotalPayments         int64   `json:"total_payments"`
	TotalDihaadiUnits     float64 `json:"total_dihaadi_units"`
	FormattedDihaadiUnits string  `json:"formatted_dihaadi_units"`
}
