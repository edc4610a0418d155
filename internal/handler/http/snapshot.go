package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SnapshotHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Restore(w http.ResponseWriter, r *http.Request)
}

type snapshotHandlerImpl struct {
	snapshotService snapshot.Service
}

func NewSnapshotHandler(snapshotService snapshot.Service) SnapshotHandler {
	return &snapshotHandlerImpl{
		snapshotService: snapshotService,
	}
}

// Create implements SnapshotHandler.
func (h *snapshotHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req snapshot.CreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.PerformedBy = userID

	id, err := h.snapshotService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Snapshot created successfully", map[string]string{"id": id})
}

// List implements SnapshotHandler.
func (h *snapshotHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := snapshot.ListFilter{
		Year:  queryInt(r, "year"),
		Month: queryInt(r, "month"),
		Scope: queryPtr(r, "scope"),
	}

	snapshots, err := h.snapshotService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, snapshots, &response.Meta{TotalItems: len(snapshots)})
}

// Get implements SnapshotHandler.
func (h *snapshotHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.snapshotService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Restore implements SnapshotHandler.
func (h *snapshotHandlerImpl) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}

	result, err := h.snapshotService.Restore(r.Context(), snapshot.RestoreRequest{
		ID:          chi.URLParam(r, "id"),
		PerformedBy: userID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Snapshot restored successfully", result)
}
