package issue

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SetDescriptionRequest struct {
	ID          string `json:"-"`
	Description string `json:"description"`
	PerformedBy string `json:"-"`
	IsAdmin     bool   `json:"-"`
}

func (r *SetDescriptionRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.Description) {
		errs = errs.Add("description", "description is required")
	}
	return errs.Err()
}

// SetCorrectionRequest sets either corrected times or corrected leave types.
type SetCorrectionRequest struct {
	ID                    string   `json:"-"`
	CorrectedEnter        *string  `json:"corrected_enter"`
	CorrectedLeave        *string  `json:"corrected_leave"`
	CorrectedLeaveTypeIDs []string `json:"corrected_leave_type_ids"`
	PerformedBy           string   `json:"-"`
	IsAdmin               bool     `json:"-"`

	ParsedEnter *calendar.TimeOfDay `json:"-"`
	ParsedLeave *calendar.TimeOfDay `json:"-"`
}

func (r *SetCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}

	timeEdit := r.CorrectedEnter != nil || r.CorrectedLeave != nil
	leaveEdit := len(r.CorrectedLeaveTypeIDs) > 0
	switch {
	case timeEdit && leaveEdit:
		errs = errs.Add("corrected_leave_type_ids", "times and leave types cannot be corrected together")
	case !timeEdit && !leaveEdit:
		errs = errs.Add("corrected_enter", "either corrected times or corrected_leave_type_ids is required")
	}

	if r.CorrectedEnter != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.CorrectedEnter); ok {
			r.ParsedEnter = &t
		} else {
			errs = errs.Add("corrected_enter", "corrected_enter must be in HH:MM:SS format")
		}
	}
	if r.CorrectedLeave != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.CorrectedLeave); ok {
			r.ParsedLeave = &t
		} else {
			errs = errs.Add("corrected_leave", "corrected_leave must be in HH:MM:SS format")
		}
	}
	if len(r.CorrectedLeaveTypeIDs) > attendance.MaxLeaveTypesPerDay {
		errs = errs.Add("corrected_leave_type_ids", "at most 2 leave types can be assigned to a day")
	}

	return errs.Err()
}

type ApplyRequest struct {
	ID          string `json:"-"`
	PerformedBy string `json:"-"`
}

func (r *ApplyRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.PerformedBy) {
		errs = errs.Add("performed_by", "performed_by is required")
	}
	return errs.Err()
}

type RejectRequest struct {
	ID          string `json:"-"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"-"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs = errs.Add("reason", "reason is required")
	}
	return errs.Err()
}

type ReRequestRequest struct {
	ID          string `json:"-"`
	PerformedBy string `json:"-"`
	IsAdmin     bool   `json:"-"`
}

func (r *ReRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}
	return errs.Err()
}

type Filter struct {
	Year       int     `json:"year" validate:"gte=1900,lte=9999"`
	Month      int     `json:"month" validate:"gte=1,lte=12"`
	Status     *Status `json:"status"`
	EmployeeID *string `json:"employee_id"`
}

func (f *Filter) Validate() error {
	errs := validator.Struct(f)
	if f.Status != nil && !f.Status.IsValid() {
		errs = errs.Add("status", "status must be one of: REQUEST, NOT_APPLIED, APPLIED, REJECTED")
	}
	return errs.Err()
}

func (f Filter) YearMonth() calendar.YearMonth {
	return calendar.YearMonth{Year: f.Year, Month: time.Month(f.Month)}
}
