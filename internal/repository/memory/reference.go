package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
)

type directory struct{ s *Store }

func (r *directory) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.s.view(ctx, func(d *state) error {
		for _, id := range ids {
			if e, ok := d.employees[id]; ok {
				out = append(out, e)
			}
		}
		return nil
	})
	sortEmployees(out)
	return out, err
}

func (r *directory) GetByNumbers(ctx context.Context, numbers []string) ([]employee.Employee, error) {
	want := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}
	var out []employee.Employee
	err := r.s.view(ctx, func(d *state) error {
		for _, e := range d.employees {
			if want[e.EmployeeNumber] {
				out = append(out, e)
			}
		}
		return nil
	})
	sortEmployees(out)
	return out, err
}

func (r *directory) ListByDepartment(ctx context.Context, departmentID string) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.s.view(ctx, func(d *state) error {
		for _, e := range d.employees {
			if e.DepartmentID != nil && *e.DepartmentID == departmentID {
				out = append(out, e)
			}
		}
		return nil
	})
	sortEmployees(out)
	return out, err
}

func sortEmployees(emps []employee.Employee) {
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })
}

type leaveTypeRepo struct{ s *Store }

func (r *leaveTypeRepo) ListAll(ctx context.Context) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	err := r.s.view(ctx, func(d *state) error {
		for _, lt := range d.leaveTypes {
			out = append(out, lt)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *leaveTypeRepo) GetByIDs(ctx context.Context, ids []string) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	err := r.s.view(ctx, func(d *state) error {
		for _, id := range ids {
			if lt, ok := d.leaveTypes[id]; ok {
				out = append(out, lt)
			}
		}
		return nil
	})
	return out, err
}
