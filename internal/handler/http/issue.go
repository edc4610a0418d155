package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type IssueHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SetDescription(w http.ResponseWriter, r *http.Request)
	SetCorrection(w http.ResponseWriter, r *http.Request)
	Apply(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	ReRequest(w http.ResponseWriter, r *http.Request)
}

type issueHandlerImpl struct {
	issueService issue.Service
}

func NewIssueHandler(issueService issue.Service) IssueHandler {
	return &issueHandlerImpl{
		issueService: issueService,
	}
}

// List implements IssueHandler.
func (h *issueHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := issue.Filter{
		Year:       queryInt(r, "year"),
		Month:      queryInt(r, "month"),
		EmployeeID: queryPtr(r, "employee_id"),
	}
	if status := queryPtr(r, "status"); status != nil {
		s := issue.Status(*status)
		filter.Status = &s
	}

	issues, err := h.issueService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, issues, &response.Meta{TotalItems: len(issues)})
}

// Get implements IssueHandler.
func (h *issueHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.issueService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SetDescription implements IssueHandler.
func (h *issueHandlerImpl) SetDescription(w http.ResponseWriter, r *http.Request) {
	var req issue.SetDescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.PerformedBy = userID
	req.IsAdmin = isAdmin(r)

	result, err := h.issueService.SetDescription(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Issue description updated successfully", result)
}

// SetCorrection implements IssueHandler.
func (h *issueHandlerImpl) SetCorrection(w http.ResponseWriter, r *http.Request) {
	var req issue.SetCorrectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.PerformedBy = userID
	req.IsAdmin = isAdmin(r)

	result, err := h.issueService.SetCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Issue correction updated successfully", result)
}

// Apply implements IssueHandler.
func (h *issueHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}

	result, err := h.issueService.Apply(r.Context(), issue.ApplyRequest{
		ID:          chi.URLParam(r, "id"),
		PerformedBy: userID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Issue applied successfully", result)
}

// Reject implements IssueHandler.
func (h *issueHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req issue.RejectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.PerformedBy = userID

	result, err := h.issueService.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Issue rejected successfully", result)
}

// ReRequest implements IssueHandler.
func (h *issueHandlerImpl) ReRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}

	result, err := h.issueService.ReRequest(r.Context(), issue.ReRequestRequest{
		ID:          chi.URLParam(r, "id"),
		PerformedBy: userID,
		IsAdmin:     isAdmin(r),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Issue re-requested successfully", result)
}
