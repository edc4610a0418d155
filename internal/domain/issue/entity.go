package issue

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Issue is the reviewable anomaly raised for a daily fact. At most one live
// issue exists per fact and regeneration never touches it once created.
type Issue struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	Date        time.Time `json:"date"`
	DailyFactID string    `json:"daily_fact_id"`

	ProblematicEnter        *calendar.TimeOfDay `json:"problematic_enter"`
	ProblematicLeave        *calendar.TimeOfDay `json:"problematic_leave"`
	ProblematicLeaveTypeIDs []string            `json:"problematic_leave_type_ids"`

	CorrectedEnter        *calendar.TimeOfDay `json:"corrected_enter"`
	CorrectedLeave        *calendar.TimeOfDay `json:"corrected_leave"`
	CorrectedLeaveTypeIDs []string            `json:"corrected_leave_type_ids"`

	Status          Status     `json:"status"`
	Description     *string    `json:"description"`
	RejectionReason *string    `json:"rejection_reason"`
	ConfirmedBy     *string    `json:"confirmed_by"`
	ConfirmedAt     *time.Time `json:"confirmed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
}

// HasTimeCorrection reports whether a corrected enter or leave is set.
func (i Issue) HasTimeCorrection() bool {
	return i.CorrectedEnter != nil || i.CorrectedLeave != nil
}

// HasCorrection reports whether any correction field is set.
func (i Issue) HasCorrection() bool {
	return i.HasTimeCorrection() || len(i.CorrectedLeaveTypeIDs) > 0
}

// EditableBy reports whether userID may describe, correct or re-request the
// issue: its own employee or an admin.
func (i Issue) EditableBy(userID string, isAdmin bool) bool {
	return isAdmin || (userID != "" && userID == i.EmployeeID)
}

// CorrectionRequest turns the stored correction into a daily fact update.
func (i Issue) CorrectionRequest(performedBy string) attendance.UpdateDailyFactRequest {
	req := attendance.UpdateDailyFactRequest{
		ID:          i.DailyFactID,
		Reason:      "issue " + i.ID + " applied",
		PerformedBy: performedBy,
	}
	if i.Description != nil && *i.Description != "" {
		req.Reason = *i.Description
	}
	if i.HasTimeCorrection() {
		req.Enter = calendar.TextPtr(i.CorrectedEnter)
		req.Leave = calendar.TextPtr(i.CorrectedLeave)
		return req
	}
	req.LeaveTypeIDs = append([]string(nil), i.CorrectedLeaveTypeIDs...)
	return req
}

// NewFromFact builds a REQUEST issue carrying the fact's problematic values.
func NewFromFact(id string, fact attendance.DailyFact, now time.Time) Issue {
	enter := fact.RealEnter
	if enter == nil {
		enter = fact.Enter
	}
	leave := fact.RealLeave
	if leave == nil {
		leave = fact.Leave
	}

	var leaveTypeIDs []string
	for _, u := range fact.UsedLeaveTypes {
		if len(leaveTypeIDs) == attendance.MaxLeaveTypesPerDay {
			break
		}
		leaveTypeIDs = append(leaveTypeIDs, u.ID)
	}

	return Issue{
		ID:                      id,
		EmployeeID:              fact.EmployeeID,
		Date:                    fact.Date,
		DailyFactID:             fact.ID,
		ProblematicEnter:        enter,
		ProblematicLeave:        leave,
		ProblematicLeaveTypeIDs: leaveTypeIDs,
		Status:                  StatusRequest,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}
