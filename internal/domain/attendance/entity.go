package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// DailyFact is the single derived attendance record per employee and day.
type DailyFact struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"`
	IsHoliday  bool      `json:"is_holiday"`

	// Enter/Leave are widened by recognized leave windows; Real* come from raw events only.
	Enter     *calendar.TimeOfDay `json:"enter"`
	Leave     *calendar.TimeOfDay `json:"leave"`
	RealEnter *calendar.TimeOfDay `json:"real_enter"`
	RealLeave *calendar.TimeOfDay `json:"real_leave"`

	WorkTimeMinutes *int `json:"work_time_minutes"`

	IsLate       bool `json:"is_late"`
	IsAbsent     bool `json:"is_absent"`
	IsEarlyLeave bool `json:"is_early_leave"`
	HasConflict  bool `json:"has_conflict"`
	HasOverlap   bool `json:"has_overlap"`

	UsedLeaveTypes []UsedLeaveType `json:"used_leave_types"`
	Note           string          `json:"note"`

	MonthlySummaryID *string    `json:"monthly_summary_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"-"`
}

// NeedsReview reports whether the fact should raise an attendance issue.
func (f DailyFact) NeedsReview() bool {
	return f.IsLate || f.IsAbsent || f.IsEarlyLeave || f.HasOverlap
}

// HasRecognizedLeave reports whether any used leave type counts as work time.
func (f DailyFact) HasRecognizedLeave() bool {
	for _, u := range f.UsedLeaveTypes {
		if u.IsRecognizedWorkTime {
			return true
		}
	}
	return false
}

// LeaveTypeIDs lists the ids of the used leave types in stored order.
func (f DailyFact) LeaveTypeIDs() []string {
	ids := make([]string, 0, len(f.UsedLeaveTypes))
	for _, u := range f.UsedLeaveTypes {
		ids = append(ids, u.ID)
	}
	return ids
}

// UsedLeaveType is a copy of the leave type as it was when the fact was computed.
type UsedLeaveType struct {
	ID                   string              `json:"id"`
	Title                string              `json:"title"`
	WorkTimeMinutes      int                 `json:"work_time_minutes"`
	IsRecognizedWorkTime bool                `json:"is_recognized_work_time"`
	StartWorkTime        *calendar.TimeOfDay `json:"start_work_time"`
	EndWorkTime          *calendar.TimeOfDay `json:"end_work_time"`
}

func UsedLeaveTypeOf(lt leave.LeaveType) UsedLeaveType {
	return UsedLeaveType{
		ID:                   lt.ID,
		Title:                lt.Title,
		WorkTimeMinutes:      lt.WorkTimeMinutes,
		IsRecognizedWorkTime: lt.IsRecognizedWorkTime,
		StartWorkTime:        lt.StartWorkTime,
		EndWorkTime:          lt.EndWorkTime,
	}
}

// MonthlySummary aggregates one employee's daily facts for a month.
type MonthlySummary struct {
	ID                       string             `json:"id"`
	EmployeeID               string             `json:"employee_id"`
	YearMonth                calendar.YearMonth `json:"yyyymm"`
	WorkDaysCount            int                `json:"work_days_count"`
	TotalWorkTimeMinutes     int                `json:"total_work_time_minutes"`
	TotalWorkableTimeMinutes int                `json:"total_workable_time_minutes"`
	AvgWorkTimeMinutes       decimal.Decimal    `json:"avg_work_time_minutes"`
	LeaveTypeCounts          map[string]int     `json:"leave_type_counts"`
	WeeklyBreakdown          []WeeklyWorkTime   `json:"weekly_breakdown"`
	LateDetails              []DayDetail        `json:"late_details"`
	AbsenceDetails           []DayDetail        `json:"absence_details"`
	EarlyLeaveDetails        []DayDetail        `json:"early_leave_details"`
	Note                     string             `json:"note"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
	DeletedAt                *time.Time         `json:"-"`
}

// WeeklyWorkTime is the work time of one ISO week, clipped to the month.
type WeeklyWorkTime struct {
	Year            int    `json:"year"`
	Week            int    `json:"week"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	WorkTimeMinutes int    `json:"work_time_minutes"`
}

// DayDetail describes one late, absent or early-leave day.
type DayDetail struct {
	Date string              `json:"date"`
	Time *calendar.TimeOfDay `json:"time,omitempty"`
	// Minutes past the start (late) or before the end (early leave).
	Minutes int `json:"minutes,omitempty"`
}

// MonthInput is everything a recompute reads. It is loaded from storage for a
// regular run and decoded from a snapshot for a restore.
type MonthInput struct {
	Month       calendar.YearMonth
	Employees   []employee.Employee
	Events      []rawdata.Event
	Usages      []rawdata.LeaveUsage
	Corrections []rawdata.TimeCorrection
	LeaveTypes  []leave.LeaveType
	Calendar    worktime.Calendar
}

// ScopeLockKey is the serialization key shared by every writer of a month.
func ScopeLockKey(ym calendar.YearMonth) string {
	return "attendance:" + ym.String()
}
