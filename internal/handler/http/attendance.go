package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/middleware"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
	"github.com/shramsathi/shramsathi-backend-go/internal/service/dihaadi"
)

type AttendanceHandler interface {
	Save(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	MonthlyStats(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

func newRecordResponse(rec attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:              rec.ID,
		Date:            rec.Date,
		Type:            string(rec.Type),
		TypeDescription: dihaadi.Description(rec.Type),
		PaymentAmount:   rec.PaymentAmount,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       rec.UpdatedAt.Format(time.RFC3339),
	}
}

func newRecordResponses(records []attendance.Record) []attendance.RecordResponse {
	out := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newRecordResponse(rec))
	}
	return out
}

// parseListFilter reads start_date and end_date from the query string.
func parseListFilter(r *http.Request) attendance.ListAttendanceFilter {
	var filter attendance.ListAttendanceFilter
	query := r.URL.Query()
	if v := query.Get("start_date"); v != "" {
		filter.StartDate = &v
	}
	if v := query.Get("end_date"); v != "" {
		filter.EndDate = &v
	}
	return filter
}

// monthOrCurrent returns the month query parameter, the current month when absent.
func monthOrCurrent(r *http.Request) string {
	if month := r.URL.Query().Get("month"); month != "" {
		return month
	}
	return time.Now().Format("2006-01")
}

// Save implements AttendanceHandler.
func (h *attendanceHandlerImpl) Save(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req attendance.SaveAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SaveAttendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = claims.UserID.String()
	req.Date = chi.URLParam(r, "date")

	result, err := h.attendanceService.SaveAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Warning != "" {
		response.SuccessWithWarning(w, "Attendance saved", result.Warning, newRecordResponse(result.Record))
		return
	}
	response.SuccessWithMessage(w, "Attendance saved", newRecordResponse(result.Record))
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	filter := parseListFilter(r)
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.attendanceService.GetAttendanceByUser(r.Context(), claims.UserID.String(), filter.Range())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, newRecordResponses(records))
}

// MonthlyStats implements AttendanceHandler.
func (h *attendanceHandlerImpl) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	req := attendance.MonthlyStatsRequest{Month: monthOrCurrent(r)}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	stats, err := h.attendanceService.GetMonthlyStats(r.Context(), claims.UserID.String(), req.Month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, stats)
}
