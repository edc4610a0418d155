package leave

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// LeaveType is immutable reference data describing one kind of leave or absence.
type LeaveType struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	WorkTimeMinutes      int    `json:"work_time_minutes"`
	IsRecognizedWorkTime bool   `json:"is_recognized_work_time"`

	// Declared window; nil means the type does not restrict the time of day.
	StartWorkTime *calendar.TimeOfDay `json:"start_work_time"`
	EndWorkTime   *calendar.TimeOfDay `json:"end_work_time"`

	DeductedAnnualLeaveDays decimal.Decimal `json:"deducted_annual_leave_days"`
}

// HasWindow reports whether both ends of the declared window are set.
func (lt LeaveType) HasWindow() bool {
	return lt.StartWorkTime != nil && lt.EndWorkTime != nil
}

// IndexByID builds a lookup keyed by leave type id.
func IndexByID(types []LeaveType) map[string]LeaveType {
	out := make(map[string]LeaveType, len(types))
	for _, lt := range types {
		out[lt.ID] = lt
	}
	return out
}
