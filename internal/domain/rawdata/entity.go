package rawdata

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Event is one access-control reading as supplied by ingestion.
type Event struct {
	ID             string             `json:"id"`
	EmployeeNumber string             `json:"employee_number"`
	Date           time.Time          `json:"date"`
	TimeOfDay      calendar.TimeOfDay `json:"time_of_day"`
	CreatedAt      time.Time          `json:"created_at"`
}

// LeaveUsage records that an employee used a leave type on a date.
// Unique per (employee, date, leave type).
type LeaveUsage struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	Date        time.Time `json:"date"`
	LeaveTypeID string    `json:"leave_type_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimeCorrection is an applied manual override of an employee-day's first
// and/or last punch. Unique per (employee, date); regeneration reads it on top
// of the raw events, so a nil side keeps the raw punch.
type TimeCorrection struct {
	ID         string              `json:"id"`
	EmployeeID string              `json:"employee_id"`
	Date       time.Time           `json:"date"`
	Enter      *calendar.TimeOfDay `json:"enter"`
	Leave      *calendar.TimeOfDay `json:"leave"`
	Reason     string              `json:"reason"`
	CreatedBy  string              `json:"created_by"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Filter narrows raw data to a month and optionally to a set of employees.
// A nil employee list means every employee.
type Filter struct {
	Month           calendar.YearMonth
	EmployeeIDs     []string
	EmployeeNumbers []string
}
