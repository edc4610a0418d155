package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	GenerateDaily(w http.ResponseWriter, r *http.Request)
	GenerateMonthly(w http.ResponseWriter, r *http.Request)
	ListDaily(w http.ResponseWriter, r *http.Request)
	GetDaily(w http.ResponseWriter, r *http.Request)
	UpdateDaily(w http.ResponseWriter, r *http.Request)
	ListMonthly(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.Service
}

func NewAttendanceHandler(attendanceService attendance.Service) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// GenerateDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) GenerateDaily(w http.ResponseWriter, r *http.Request) {
	var req attendance.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.PerformedBy = userID

	result, err := h.attendanceService.GenerateDailySummaries(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily summaries generated successfully", result)
}

// GenerateMonthly implements AttendanceHandler.
func (h *attendanceHandlerImpl) GenerateMonthly(w http.ResponseWriter, r *http.Request) {
	var req attendance.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.PerformedBy = userID

	result, err := h.attendanceService.GenerateMonthlySummaries(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Monthly summaries generated successfully", result)
}

// ListDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDaily(w http.ResponseWriter, r *http.Request) {
	filter := attendance.DailyFactFilter{
		Year:       queryInt(r, "year"),
		Month:      queryInt(r, "month"),
		EmployeeID: queryPtr(r, "employee_id"),
	}

	facts, err := h.attendanceService.ListDailyFacts(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, facts, &response.Meta{TotalItems: len(facts)})
}

// GetDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDaily(w http.ResponseWriter, r *http.Request) {
	fact, err := h.attendanceService.GetDailyFact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, fact)
}

// UpdateDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) UpdateDaily(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateDailyFactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.PerformedBy = userID

	fact, err := h.attendanceService.UpdateDailyFact(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily attendance updated successfully", fact)
}

// ListMonthly implements AttendanceHandler. With employee_id it returns that
// employee's single summary.
func (h *attendanceHandlerImpl) ListMonthly(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if employeeID := queryPtr(r, "employee_id"); employeeID != nil {
		summary, err := h.attendanceService.GetMonthlySummary(r.Context(), *employeeID, ym)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, summary)
		return
	}

	summaries, err := h.attendanceService.ListMonthlySummaries(r.Context(), ym)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, summaries, &response.Meta{TotalItems: len(summaries)})
}
