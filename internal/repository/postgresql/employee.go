package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

const employeeColumns = `id, employee_number, full_name, department_id, hire_date, termination_date`

func scanEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	defer rows.Close()
	var out []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(&e.ID, &e.EmployeeNumber, &e.FullName, &e.DepartmentID, &e.HireDate, &e.TerminationDate); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByIDs implements employee.Directory.
func (r *employeeDirectory) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees by id: %w", err)
	}
	return scanEmployees(rows)
}

// GetByNumbers implements employee.Directory.
func (r *employeeDirectory) GetByNumbers(ctx context.Context, employeeNumbers []string) ([]employee.Employee, error) {
	if len(employeeNumbers) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE employee_number = ANY($1)
		ORDER BY id
	`, employeeNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees by number: %w", err)
	}
	return scanEmployees(rows)
}

// ListByDepartment implements employee.Directory.
func (r *employeeDirectory) ListByDepartment(ctx context.Context, departmentID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE department_id = $1
		ORDER BY id
	`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department employees: %w", err)
	}
	return scanEmployees(rows)
}
