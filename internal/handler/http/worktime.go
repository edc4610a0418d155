package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type WorkTimeHandler interface {
	ListOverrides(w http.ResponseWriter, r *http.Request)
	SetOverride(w http.ResponseWriter, r *http.Request)
	DeleteOverride(w http.ResponseWriter, r *http.Request)
	ListHolidays(w http.ResponseWriter, r *http.Request)
	AddHoliday(w http.ResponseWriter, r *http.Request)
}

type workTimeHandlerImpl struct {
	workTimeService worktime.Service
}

func NewWorkTimeHandler(workTimeService worktime.Service) WorkTimeHandler {
	return &workTimeHandlerImpl{
		workTimeService: workTimeService,
	}
}

// ListOverrides implements WorkTimeHandler.
func (h *workTimeHandlerImpl) ListOverrides(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	overrides, err := h.workTimeService.ListOverrides(r.Context(), ym)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, overrides)
}

// SetOverride implements WorkTimeHandler.
func (h *workTimeHandlerImpl) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req worktime.SetOverrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := performedBy(w, r)
	if !ok {
		return
	}
	req.PerformedBy = userID

	result, err := h.workTimeService.SetOverride(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work time override saved successfully", result)
}

// DeleteOverride implements WorkTimeHandler.
func (h *workTimeHandlerImpl) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	date, ok := validator.IsValidDate(r.URL.Query().Get("date"))
	if !ok {
		var errs validator.ValidationErrors
		response.HandleError(w, errs.Add("date", "date must be in YYYY-MM-DD format").Err())
		return
	}

	if err := h.workTimeService.DeleteOverride(r.Context(), date); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work time override deleted successfully", nil)
}

// ListHolidays implements WorkTimeHandler.
func (h *workTimeHandlerImpl) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	holidays, err := h.workTimeService.ListHolidays(r.Context(), ym)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, holidays)
}

// AddHoliday implements WorkTimeHandler.
func (h *workTimeHandlerImpl) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req worktime.AddHolidayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.workTimeService.AddHoliday(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday added successfully", result)
}
