package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// User domain errors
	case errors.Is(err, user.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrMobileExists):
		Conflict(w, "Mobile number already registered")
	case errors.Is(err, user.ErrContractorRequired), errors.Is(err, user.ErrWorkerRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrRemoteRequired):
		ServiceUnavailable(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidDate),
		errors.Is(err, attendance.ErrInvalidType),
		errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrNegativePayment):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Relation domain errors
	case errors.Is(err, relation.ErrInvalidContractorCode):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, relation.ErrWorkerNotLinked):
		Forbidden(w, err.Error())

	// Sync queue errors
	case errors.Is(err, syncqueue.ErrDrainInProgress):
		Conflict(w, err.Error())
	case errors.Is(err, syncqueue.ErrRemoteOffline):
		ServiceUnavailable(w, "Remote store is offline, queued writes kept")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
