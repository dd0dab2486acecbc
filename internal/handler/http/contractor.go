package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/attendance"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/relation"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/middleware"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
)

type ContractorHandler interface {
	Link(w http.ResponseWriter, r *http.Request)
	Code(w http.ResponseWriter, r *http.Request)
	Workers(w http.ResponseWriter, r *http.Request)
	WorkerAttendance(w http.ResponseWriter, r *http.Request)
}

type contractorHandlerImpl struct {
	userService       user.UserService
	relationService   relation.RelationService
	attendanceService attendance.AttendanceService
}

func NewContractorHandler(userService user.UserService, relationService relation.RelationService, attendanceService attendance.AttendanceService) ContractorHandler {
	return &contractorHandlerImpl{
		userService:       userService,
		relationService:   relationService,
		attendanceService: attendanceService,
	}
}

// Link implements ContractorHandler. Called by a worker with the code their contractor shared.
func (h *contractorHandlerImpl) Link(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req relation.LinkContractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	linked, err := h.relationService.AssignWorkerToContractor(r.Context(), claims.UserID, req.ContractorCode)
	if err != nil {
		slog.Error("Link service error", "error", err)
		response.HandleError(w, err)
		return
	}
	if !linked {
		response.NotFound(w, "No contractor found with this code")
		return
	}
	response.SuccessWithMessage(w, "Linked to contractor", relation.LinkContractorResponse{Linked: true, ContractorCode: req.ContractorCode})
}

// Code implements ContractorHandler.
func (h *contractorHandlerImpl) Code(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	code, err := h.userService.EnsureContractorCode(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]string{"contractor_code": code})
}

// Workers implements ContractorHandler. Each worker comes with the month's stats.
func (h *contractorHandlerImpl) Workers(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	req := attendance.MonthlyStatsRequest{Month: monthOrCurrent(r)}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	workers, err := h.relationService.GetWorkersByContractor(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := relation.WorkersResponse{Month: req.Month, Workers: make([]relation.WorkerSummary, 0, len(workers))}
	for _, worker := range workers {
		stats, err := h.attendanceService.GetMonthlyStats(r.Context(), worker.ID.String(), req.Month)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		resp.Workers = append(resp.Workers, relation.WorkerSummary{
			Worker: user.NewUserResponse(worker),
			Stats:  stats.Stats,
		})
	}
	response.Success(w, resp)
}

// WorkerAttendance implements ContractorHandler. Only workers linked to the caller are visible.
func (h *contractorHandlerImpl) WorkerAttendance(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	workerID := user.ParseID(chi.URLParam(r, "workerID"))

	filter := parseListFilter(r)
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	workers, err := h.relationService.GetWorkersByContractor(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	linked := false
	for _, worker := range workers {
		if worker.ID == workerID {
			linked = true
			break
		}
	}
	if !linked {
		response.HandleError(w, relation.ErrWorkerNotLinked)
		return
	}

	records, err := h.attendanceService.GetAttendanceByUser(r.Context(), workerID.String(), filter.Range())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, newRecordResponses(records))
}
