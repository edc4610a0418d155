package attendance

import (
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type dayKey struct {
	employeeID string
	date       string
}

// dayInput is the reconciled raw signal of one employee-day.
type dayInput struct {
	realEnter *calendar.TimeOfDay
	realLeave *calendar.TimeOfDay
	usages    []rawdata.LeaveUsage
}

func (d dayInput) attended() bool {
	return d.realEnter != nil || d.realLeave != nil
}

// normalizedMonth is the month's raw input grouped by (employee, date).
type normalizedMonth struct {
	month calendar.YearMonth
	// employees with at least one raw signal in the month, ordered by id
	employees []employee.Employee
	days      map[dayKey]*dayInput
}

func (n normalizedMonth) day(employeeID string, date time.Time) dayInput {
	if d, ok := n.days[dayKey{employeeID, calendar.DateKey(date)}]; ok {
		return *d
	}
	return dayInput{}
}

// normalize keeps only the first and last event of each employee-day, lets an
// applied time correction override them and attaches that day's leave usages. Signals of unknown employees, of leave
// types missing from the input, or outside the month are dropped with a warning.
// A nil only means every employee.
func normalize(input attendance.MonthInput, only map[string]bool, logger *slog.Logger) normalizedMonth {
	byNumber := make(map[string]employee.Employee, len(input.Employees))
	byID := make(map[string]employee.Employee, len(input.Employees))
	for _, e := range input.Employees {
		byNumber[e.EmployeeNumber] = e
		byID[e.ID] = e
	}
	knownLeaveTypes := make(map[string]bool, len(input.LeaveTypes))
	for _, lt := range input.LeaveTypes {
		knownLeaveTypes[lt.ID] = true
	}

	n := normalizedMonth{
		month: input.Month,
		days:  make(map[dayKey]*dayInput),
	}
	signalled := make(map[string]bool)

	get := func(employeeID string, date time.Time) *dayInput {
		k := dayKey{employeeID, calendar.DateKey(date)}
		d, ok := n.days[k]
		if !ok {
			d = &dayInput{}
			n.days[k] = d
		}
		return d
	}

	unknownNumbers := make(map[string]int)
	for _, ev := range input.Events {
		if !input.Month.Contains(ev.Date) {
			continue
		}
		emp, ok := byNumber[ev.EmployeeNumber]
		if !ok {
			unknownNumbers[ev.EmployeeNumber]++
			continue
		}
		if only != nil && !only[emp.ID] {
			continue
		}
		signalled[emp.ID] = true

		d := get(emp.ID, ev.Date)
		t := ev.TimeOfDay
		d.realEnter = calendar.MinTime(d.realEnter, &t)
		d.realLeave = calendar.MaxTime(d.realLeave, &t)
	}
	for number, count := range unknownNumbers {
		logger.Warn("Skipping raw events of unknown employee", "employee_number", number, "event_count", count)
	}

	// applied corrections replace the punch they name
	for _, c := range input.Corrections {
		if !input.Month.Contains(c.Date) {
			continue
		}
		if _, ok := byID[c.EmployeeID]; !ok {
			logger.Warn("Skipping time correction of unknown employee", "employee_id", c.EmployeeID, "time_correction_id", c.ID)
			continue
		}
		if only != nil && !only[c.EmployeeID] {
			continue
		}
		signalled[c.EmployeeID] = true

		d := get(c.EmployeeID, c.Date)
		if c.Enter != nil {
			d.realEnter = c.Enter
		}
		if c.Leave != nil {
			d.realLeave = c.Leave
		}
	}

	for _, u := range input.Usages {
		if !input.Month.Contains(u.Date) {
			continue
		}
		if _, ok := byID[u.EmployeeID]; !ok {
			logger.Warn("Skipping leave usage of unknown employee", "employee_id", u.EmployeeID, "leave_usage_id", u.ID)
			continue
		}
		if !knownLeaveTypes[u.LeaveTypeID] {
			logger.Warn("Skipping leave usage of unknown leave type", "leave_type_id", u.LeaveTypeID, "leave_usage_id", u.ID)
			continue
		}
		if only != nil && !only[u.EmployeeID] {
			continue
		}
		signalled[u.EmployeeID] = true

		d := get(u.EmployeeID, u.Date)
		d.usages = append(d.usages, u)
	}

	for _, d := range n.days {
		sortUsages(d.usages)
	}

	for id := range signalled {
		n.employees = append(n.employees, byID[id])
	}
	sort.Slice(n.employees, func(i, j int) bool { return n.employees[i].ID < n.employees[j].ID })

	return n
}

func sortUsages(usages []rawdata.LeaveUsage) {
	sort.Slice(usages, func(i, j int) bool {
		if usages[i].LeaveTypeID != usages[j].LeaveTypeID {
			return usages[i].LeaveTypeID < usages[j].LeaveTypeID
		}
		return usages[i].ID < usages[j].ID
	})
}

func toSet(ids []string) map[string]bool {
	if ids == nil {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
