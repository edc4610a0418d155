package employee

import "context"

// Directory is the read-only employee directory owned by the HR system.
type Directory interface {
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	GetByNumbers(ctx context.Context, employeeNumbers []string) ([]Employee, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]Employee, error)
}
