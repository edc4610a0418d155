package attendance

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	worktimesvc "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
	"github.com/shopspring/decimal"
)

// Synthetic keys of MonthlySummary.LeaveTypeCounts.
const (
	CountLate       = "late"
	CountAbsent     = "absent"
	CountEarlyLeave = "early_leave"
)

// aggregator rolls one employee's facts and leave usage into a monthly summary.
// It reads nothing but its arguments.
type aggregator struct {
	policy     *worktimesvc.Policy
	leaveTypes map[string]leave.LeaveType
}

func newAggregator(policy *worktimesvc.Policy, leaveTypes []leave.LeaveType) *aggregator {
	return &aggregator{
		policy:     policy,
		leaveTypes: leave.IndexByID(leaveTypes),
	}
}

func (a *aggregator) aggregate(emp employee.Employee, ym calendar.YearMonth, facts []attendance.DailyFact, usages []rawdata.LeaveUsage) attendance.MonthlySummary {
	s := attendance.MonthlySummary{
		EmployeeID:               emp.ID,
		YearMonth:                ym,
		TotalWorkableTimeMinutes: ym.Weekdays() * a.policy.Settings().WorkableMinutesPerDay,
		LeaveTypeCounts:          map[string]int{CountLate: 0, CountAbsent: 0, CountEarlyLeave: 0},
		WeeklyBreakdown:          []attendance.WeeklyWorkTime{},
		LateDetails:              []attendance.DayDetail{},
		AbsenceDetails:           []attendance.DayDetail{},
		EarlyLeaveDetails:        []attendance.DayDetail{},
	}

	recognizedDays := make(map[string]bool)
	for _, u := range usages {
		lt, ok := a.leaveTypes[u.LeaveTypeID]
		if !ok || !ym.Contains(u.Date) {
			continue
		}
		s.LeaveTypeCounts[lt.Title]++
		if a.policy.IsRecognized(lt) {
			recognizedDays[calendar.DateKey(u.Date)] = true
		}
	}

	minutesByDate := make(map[string]int, len(facts))
	for _, f := range facts {
		key := calendar.DateKey(f.Date)
		wt := WorkMinutes(f)
		if wt != nil {
			minutesByDate[key] = *wt
		}
		if wt != nil || recognizedDays[key] {
			s.WorkDaysCount++
		}

		start, end := a.policy.NormalWindow(f.Date)
		if f.IsLate {
			s.LeaveTypeCounts[CountLate]++
			s.LateDetails = append(s.LateDetails, attendance.DayDetail{
				Date:    key,
				Time:    f.RealEnter,
				Minutes: minutesBetween(&start, f.RealEnter),
			})
		}
		if f.IsAbsent {
			s.LeaveTypeCounts[CountAbsent]++
			s.AbsenceDetails = append(s.AbsenceDetails, attendance.DayDetail{Date: key})
		}
		if f.IsEarlyLeave {
			s.LeaveTypeCounts[CountEarlyLeave]++
			s.EarlyLeaveDetails = append(s.EarlyLeaveDetails, attendance.DayDetail{
				Date:    key,
				Time:    f.RealLeave,
				Minutes: minutesBetween(f.RealLeave, &end),
			})
		}
	}

	s.WeeklyBreakdown = weeklyBreakdown(ym, minutesByDate)
	for _, w := range s.WeeklyBreakdown {
		s.TotalWorkTimeMinutes += w.WorkTimeMinutes
	}

	s.AvgWorkTimeMinutes = decimal.Zero
	if s.WorkDaysCount > 0 {
		s.AvgWorkTimeMinutes = decimal.NewFromInt(int64(s.TotalWorkTimeMinutes)).
			Div(decimal.NewFromInt(int64(s.WorkDaysCount))).
			Round(2)
	}

	s.Note = monthlyNote(emp, ym, s)
	return s
}

// weeklyBreakdown buckets every day of the month by ISO week, clipped to the month.
func weeklyBreakdown(ym calendar.YearMonth, minutesByDate map[string]int) []attendance.WeeklyWorkTime {
	var weeks []attendance.WeeklyWorkTime
	for _, d := range ym.Days() {
		year, week := d.ISOWeek()
		key := calendar.DateKey(d)
		if n := len(weeks); n == 0 || weeks[n-1].Year != year || weeks[n-1].Week != week {
			weeks = append(weeks, attendance.WeeklyWorkTime{Year: year, Week: week, StartDate: key})
		}
		w := &weeks[len(weeks)-1]
		w.EndDate = key
		w.WorkTimeMinutes += minutesByDate[key]
	}
	return weeks
}

func minutesBetween(from, to *calendar.TimeOfDay) int {
	if from == nil || to == nil {
		return 0
	}
	return from.MinutesUntil(*to)
}

func monthlyNote(emp employee.Employee, ym calendar.YearMonth, s attendance.MonthlySummary) string {
	var parts []string
	if emp.HireDate != nil && ym.Contains(*emp.HireDate) {
		parts = append(parts, "hired "+calendar.DateKey(*emp.HireDate))
	}
	if emp.TerminationDate != nil && ym.Contains(*emp.TerminationDate) {
		parts = append(parts, "terminated "+calendar.DateKey(*emp.TerminationDate))
	}
	if n := s.LeaveTypeCounts[CountLate]; n > 0 {
		parts = append(parts, fmt.Sprintf("late %d", n))
	}
	if n := s.LeaveTypeCounts[CountAbsent]; n > 0 {
		parts = append(parts, fmt.Sprintf("absent %d", n))
	}
	if n := s.LeaveTypeCounts[CountEarlyLeave]; n > 0 {
		parts = append(parts, fmt.Sprintf("early leave %d", n))
	}
	return strings.Join(parts, "; ")
}
