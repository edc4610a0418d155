package attendance

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
)

// LoadMonthInput reads the raw signals and reference data of a month from
// storage. A nil employeeIDs loads every employee with raw data in the month.
func LoadMonthInput(ctx context.Context, repos repository.Registry, ym calendar.YearMonth, employeeIDs []string) (attendance.MonthInput, error) {
	input := attendance.MonthInput{Month: ym}
	filter := rawdata.Filter{Month: ym}

	if employeeIDs != nil {
		emps, err := repos.Directory.GetByIDs(ctx, employeeIDs)
		if err != nil {
			return input, fmt.Errorf("failed to get employees: %w", err)
		}
		input.Employees = emps
		filter.EmployeeIDs = employeeIDs
		filter.EmployeeNumbers = make([]string, 0, len(emps))
		for _, e := range emps {
			filter.EmployeeNumbers = append(filter.EmployeeNumbers, e.EmployeeNumber)
		}
	}

	var err error
	input.Events, err = repos.Events.ListByMonth(ctx, filter)
	if err != nil {
		return input, fmt.Errorf("failed to list raw events: %w", err)
	}
	input.Usages, err = repos.LeaveUsages.ListByMonth(ctx, filter)
	if err != nil {
		return input, fmt.Errorf("failed to list leave usages: %w", err)
	}
	input.Corrections, err = repos.TimeCorrections.ListByMonth(ctx, filter)
	if err != nil {
		return input, fmt.Errorf("failed to list time corrections: %w", err)
	}

	if employeeIDs == nil {
		input.Employees, err = resolveEmployees(ctx, repos.Directory, input)
		if err != nil {
			return input, err
		}
	}

	input.LeaveTypes, err = repos.LeaveTypes.ListAll(ctx)
	if err != nil {
		return input, fmt.Errorf("failed to list leave types: %w", err)
	}

	input.Calendar, err = LoadCalendar(ctx, repos, ym)
	if err != nil {
		return input, err
	}
	return input, nil
}

// LoadCalendar reads the month's overrides and holidays.
func LoadCalendar(ctx context.Context, repos repository.Registry, ym calendar.YearMonth) (worktime.Calendar, error) {
	overrides, err := repos.Overrides.ListByMonth(ctx, ym)
	if err != nil {
		return worktime.Calendar{}, fmt.Errorf("failed to list work time overrides: %w", err)
	}
	holidays, err := repos.Holidays.ListByMonth(ctx, ym)
	if err != nil {
		return worktime.Calendar{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	return worktime.Calendar{Overrides: overrides, Holidays: holidays}, nil
}

// resolveEmployees looks up everyone referenced by events, usages or corrections.
func resolveEmployees(ctx context.Context, dir employee.Directory, input attendance.MonthInput) ([]employee.Employee, error) {
	numberSet := make(map[string]bool)
	for _, ev := range input.Events {
		numberSet[ev.EmployeeNumber] = true
	}
	idSet := make(map[string]bool)
	for _, u := range input.Usages {
		idSet[u.EmployeeID] = true
	}
	for _, c := range input.Corrections {
		idSet[c.EmployeeID] = true
	}

	byID := make(map[string]employee.Employee)
	if len(numberSet) > 0 {
		emps, err := dir.GetByNumbers(ctx, sortedKeys(numberSet))
		if err != nil {
			return nil, fmt.Errorf("failed to get employees by number: %w", err)
		}
		for _, e := range emps {
			byID[e.ID] = e
			delete(idSet, e.ID)
		}
	}
	if len(idSet) > 0 {
		emps, err := dir.GetByIDs(ctx, sortedKeys(idSet))
		if err != nil {
			return nil, fmt.Errorf("failed to get employees: %w", err)
		}
		for _, e := range emps {
			byID[e.ID] = e
		}
	}

	out := make([]employee.Employee, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
