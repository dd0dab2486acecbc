package attendance

import "errors"

var (
	ErrInvalidType      = errors.New("invalid attendance type")
	ErrInvalidDate      = errors.New("invalid attendance date")
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrNegativePayment  = errors.New("payment amount must not be negative")
	ErrRecordNotFound   = errors.New("attendance record not found")
)
