package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// GENERATION
// ========================================

type GenerateRequest struct {
	Year        int    `json:"year" validate:"gte=1900,lte=9999"`
	Month       int    `json:"month" validate:"gte=1,lte=12"`
	PerformedBy string `json:"performed_by" validate:"required"`
}

func (r *GenerateRequest) Validate() error {
	return validator.Struct(r).Err()
}

func (r GenerateRequest) YearMonth() calendar.YearMonth {
	return calendar.YearMonth{Year: r.Year, Month: time.Month(r.Month)}
}

type GenerateDailyResponse struct {
	Year           int `json:"year"`
	Month          int `json:"month"`
	DailyFactCount int `json:"daily_fact_count"`
	IssueCount     int `json:"issue_count"`
}

type GenerateMonthlyResponse struct {
	Year                int `json:"year"`
	Month               int `json:"month"`
	MonthlySummaryCount int `json:"monthly_summary_count"`
}

// RecomputeResult reports what a full month recompute wrote.
type RecomputeResult struct {
	DailyFactCount      int
	IssueCount          int
	MonthlySummaryCount int
}

// ========================================
// MANUAL CORRECTION
// ========================================

const MaxLeaveTypesPerDay = 2

// UpdateDailyFactRequest corrects either the times or the leave types of a fact, never both.
type UpdateDailyFactRequest struct {
	ID           string   `json:"-"`
	Enter        *string  `json:"enter"`
	Leave        *string  `json:"leave"`
	LeaveTypeIDs []string `json:"leave_type_ids"`
	Reason       string   `json:"reason"`
	PerformedBy  string   `json:"-"`

	ParsedEnter *calendar.TimeOfDay `json:"-"`
	ParsedLeave *calendar.TimeOfDay `json:"-"`
}

// IsTimeEdit reports whether the request corrects enter/leave.
func (r UpdateDailyFactRequest) IsTimeEdit() bool {
	return r.Enter != nil || r.Leave != nil
}

// IsLeaveEdit reports whether the request corrects the leave types.
func (r UpdateDailyFactRequest) IsLeaveEdit() bool {
	return len(r.LeaveTypeIDs) > 0
}

func (r *UpdateDailyFactRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = errs.Add("id", "id is required")
	}

	switch {
	case r.IsTimeEdit() && r.IsLeaveEdit():
		errs = errs.Add("leave_type_ids", "times and leave_type_ids cannot be corrected together")
	case !r.IsTimeEdit() && !r.IsLeaveEdit():
		errs = errs.Add("enter", "either enter/leave or leave_type_ids is required")
	}

	if r.Enter != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.Enter); ok {
			r.ParsedEnter = &t
		} else {
			errs = errs.Add("enter", "enter must be in HH:MM:SS format")
		}
	}
	if r.Leave != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.Leave); ok {
			r.ParsedLeave = &t
		} else {
			errs = errs.Add("leave", "leave must be in HH:MM:SS format")
		}
	}
	if r.ParsedEnter != nil && r.ParsedLeave != nil && r.ParsedLeave.Before(*r.ParsedEnter) {
		errs = errs.Add("leave", "leave must not be before enter")
	}

	if len(r.LeaveTypeIDs) > MaxLeaveTypesPerDay {
		errs = errs.Add("leave_type_ids", "at most 2 leave types can be assigned to a day")
	}
	seen := make(map[string]bool, len(r.LeaveTypeIDs))
	for _, id := range r.LeaveTypeIDs {
		if validator.IsEmpty(id) {
			errs = errs.Add("leave_type_ids", "leave_type_ids must not contain empty values")
			break
		}
		if seen[id] {
			errs = errs.Add("leave_type_ids", "leave_type_ids must not contain duplicates")
			break
		}
		seen[id] = true
	}

	if validator.IsEmpty(r.Reason) {
		errs = errs.Add("reason", "reason is required")
	}
	if validator.IsEmpty(r.PerformedBy) {
		errs = errs.Add("performed_by", "performed_by is required")
	}

	return errs.Err()
}

// ========================================
// QUERIES
// ========================================

type DailyFactFilter struct {
	Year       int     `json:"year" validate:"gte=1900,lte=9999"`
	Month      int     `json:"month" validate:"gte=1,lte=12"`
	EmployeeID *string `json:"employee_id"`
}

func (f *DailyFactFilter) Validate() error {
	return validator.Struct(f).Err()
}

func (f DailyFactFilter) YearMonth() calendar.YearMonth {
	return calendar.YearMonth{Year: f.Year, Month: time.Month(f.Month)}
}
