package http

import (
	"net/http"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/storage"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/syncqueue"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
)

type SystemHandler interface {
	StorageStatus(w http.ResponseWriter, r *http.Request)
	Sync(w http.ResponseWriter, r *http.Request)
}

type systemHandlerImpl struct {
	storageService storage.StorageService
	queue          syncqueue.SyncQueue
}

func NewSystemHandler(storageService storage.StorageService, queue syncqueue.SyncQueue) SystemHandler {
	return &systemHandlerImpl{storageService: storageService, queue: queue}
}

// StorageStatus implements SystemHandler.
func (h *systemHandlerImpl) StorageStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.storageService.Status(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, status)
}

// Sync implements SystemHandler. It drains the queue now instead of waiting for the timer.
func (h *systemHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.queue.Drain(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Sync queue drained", result)
}
