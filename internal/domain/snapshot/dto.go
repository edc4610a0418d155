package snapshot

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type CreateRequest struct {
	Scope        string  `json:"scope" validate:"oneof=COMPANY DEPARTMENT"`
	DepartmentID *string `json:"department_id"`
	Year         int     `json:"year" validate:"gte=1900,lte=9999"`
	Month        int     `json:"month" validate:"gte=1,lte=12"`
	PerformedBy  string  `json:"performed_by" validate:"required"`
}

func (r *CreateRequest) Validate() error {
	errs := validator.Struct(r)
	switch ScopeType(r.Scope) {
	case ScopeDepartment:
		if r.DepartmentID == nil || validator.IsEmpty(*r.DepartmentID) {
			errs = errs.Add("department_id", "department_id is required for DEPARTMENT scope")
		}
	case ScopeCompany:
		if r.DepartmentID != nil {
			errs = errs.Add("department_id", "department_id must be empty for COMPANY scope")
		}
	}
	return errs.Err()
}

func (r CreateRequest) ToScope() Scope {
	return Scope{Type: ScopeType(r.Scope), DepartmentID: r.DepartmentID}
}

func (r CreateRequest) YearMonth() calendar.YearMonth {
	return calendar.YearMonth{Year: r.Year, Month: time.Month(r.Month)}
}

type RestoreRequest struct {
	ID          string `json:"-"`
	PerformedBy string `json:"performed_by"`
}

func (r *RestoreRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.PerformedBy) {
		errs = errs.Add("performed_by", "performed_by is required")
	}
	return errs.Err()
}

type RestoreResponse struct {
	Year                int `json:"year"`
	Month               int `json:"month"`
	RawEventCount       int `json:"raw_event_count"`
	LeaveUsageCount     int `json:"leave_usage_count"`
	TimeCorrectionCount int `json:"time_correction_count"`
	DailyFactCount      int `json:"daily_fact_count"`
	MonthlySummaryCount int `json:"monthly_summary_count"`
	IssueCount          int `json:"issue_count"`
}

type ListFilter struct {
	Year  int     `json:"year" validate:"gte=1900,lte=9999"`
	Month int     `json:"month" validate:"gte=1,lte=12"`
	Scope *string `json:"scope" validate:"omitempty,oneof=COMPANY DEPARTMENT"`
}

func (f *ListFilter) Validate() error {
	return validator.Struct(f).Err()
}
