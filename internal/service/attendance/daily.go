package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	worktimesvc "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
)

// calculator turns one employee-day of reconciled input into a daily fact.
// It has no side effects.
type calculator struct {
	policy     *worktimesvc.Policy
	leaveTypes map[string]leave.LeaveType
}

func newCalculator(policy *worktimesvc.Policy, leaveTypes []leave.LeaveType) *calculator {
	return &calculator{
		policy:     policy,
		leaveTypes: leave.IndexByID(leaveTypes),
	}
}

// calculateMonth emits one fact per calendar day up to and including lastDay.
func (c *calculator) calculateMonth(emp employee.Employee, n normalizedMonth, lastDay time.Time) []attendance.DailyFact {
	var facts []attendance.DailyFact
	for _, date := range n.month.Days() {
		if date.After(lastDay) {
			break
		}
		facts = append(facts, c.calculateDay(emp, date, n.day(emp.ID, date)))
	}
	return facts
}

func (c *calculator) calculateDay(emp employee.Employee, date time.Time, in dayInput) attendance.DailyFact {
	p := c.policy
	ex := worktimesvc.Exemptions{
		IsHoliday:        p.IsHoliday(date),
		BeforeHire:       emp.IsBeforeHire(date),
		AfterTermination: emp.IsAfterTermination(date),
	}

	var (
		used                                  []attendance.UsedLeaveType
		recognized                            []leave.LeaveType
		coversMorning, coversAfternoon, whole bool
	)
	for _, u := range in.usages {
		lt, ok := c.leaveTypes[u.LeaveTypeID]
		if !ok {
			continue
		}
		used = append(used, attendance.UsedLeaveTypeOf(lt))
		if !p.IsRecognized(lt) {
			continue
		}
		recognized = append(recognized, lt)
		coversMorning = coversMorning || p.CoversMorning(lt, date)
		coversAfternoon = coversAfternoon || p.CoversAfternoon(lt, date)
		whole = whole || p.CoversFullDay(lt, date)
	}
	if coversMorning && coversAfternoon {
		whole = true
	}

	starts := []*calendar.TimeOfDay{in.realEnter}
	ends := []*calendar.TimeOfDay{in.realLeave}
	for _, lt := range recognized {
		starts = append(starts, lt.StartWorkTime)
		ends = append(ends, lt.EndWorkTime)
	}

	fact := attendance.DailyFact{
		EmployeeID:     emp.ID,
		Date:           date,
		IsHoliday:      ex.IsHoliday,
		Enter:          calendar.MinTime(starts...),
		Leave:          calendar.MaxTime(ends...),
		RealEnter:      in.realEnter,
		RealLeave:      in.realLeave,
		IsLate:         p.IsLate(in.realEnter, date, coversMorning, ex),
		IsEarlyLeave:   p.IsEarlyLeave(in.realLeave, date, coversAfternoon, ex),
		IsAbsent:       !in.attended() && !ex.Any() && !whole,
		HasConflict:    in.attended() && whole,
		HasOverlap:     hasDuplicateWindow(used),
		UsedLeaveTypes: used,
	}
	fact.WorkTimeMinutes = WorkMinutes(fact)
	fact.Note = dailyNote(fact)
	return fact
}

// hasDuplicateWindow flags exactly two leave records declaring the same window.
func hasDuplicateWindow(used []attendance.UsedLeaveType) bool {
	if len(used) != 2 {
		return false
	}
	a, b := used[0], used[1]
	if a.StartWorkTime == nil || a.EndWorkTime == nil || b.StartWorkTime == nil || b.EndWorkTime == nil {
		return false
	}
	return *a.StartWorkTime == *b.StartWorkTime && *a.EndWorkTime == *b.EndWorkTime
}

func dailyNote(f attendance.DailyFact) string {
	var parts []string
	if f.IsLate {
		parts = append(parts, "late "+f.RealEnter.String())
	}
	if f.IsEarlyLeave {
		parts = append(parts, "early leave "+f.RealLeave.String())
	}
	if f.IsAbsent {
		parts = append(parts, "absent")
	}
	return strings.Join(parts, ", ")
}
