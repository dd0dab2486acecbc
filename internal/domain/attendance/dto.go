package attendance

import (
	"strings"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
)

// SaveAttendanceRequest marks one calendar day for a user.
type SaveAttendanceRequest struct {
	UserID        string `json:"-"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	PaymentAmount *int64 `json:"payment_amount,omitempty"`
}

func (r *SaveAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	r.Type = strings.TrimSpace(r.Type)
	if !Type(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of A, 1/2P, P, P1/2, 2P",
		})
	}

	if r.PaymentAmount != nil && *r.PaymentAmount < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "payment_amount",
			Message: "payment_amount must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Amount returns the payment amount, 0 when not given.
func (r *SaveAttendanceRequest) Amount() int64 {
	if r.PaymentAmount == nil {
		return 0
	}
	return *r.PaymentAmount
}

// ListAttendanceFilter is the query of GET /attendance
type ListAttendanceFilter struct {
	StartDate *string
	EndDate   *string
}

func (f *ListAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	var start, end time.Time
	var startOK, endOK bool
	if f.StartDate != nil {
		if start, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil {
		if end, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if startOK && endOK && start.After(end) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must not be after end_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range converts the filter into a DateRange.
func (f *ListAttendanceFilter) Range() DateRange {
	var rng DateRange
	if f.StartDate != nil {
		rng.Start = *f.StartDate
	}
	if f.EndDate != nil {
		rng.End = *f.EndDate
	}
	return rng
}

type MonthlyStatsRequest struct {
	Month string `json:"month"`
}

func (r *MonthlyStatsRequest) Validate() error {
	if _, ok := validator.IsValidMonth(r.Month); !ok {
		return validator.ValidationErrors{{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		}}
	}
	return nil
}

type RecordResponse struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Type            string `json:"type"`
	TypeDescription string `json:"type_description"`
	PaymentAmount   int64  `json:"payment_amount"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type MonthlyStatsResponse struct {
	Month     string       `json:"month"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Stats     MonthlyStats `json:"stats"`
}
