package employee

import (
	"time"
)

// Employee is the slice of the employee directory the attendance engine reads.
type Employee struct {
	ID              string     `json:"id"`
	EmployeeNumber  string     `json:"employee_number"`
	FullName        string     `json:"full_name"`
	DepartmentID    *string    `json:"department_id"`
	HireDate        *time.Time `json:"hire_date"`
	TerminationDate *time.Time `json:"termination_date"`
}

// IsBeforeHire reports whether date precedes the hire date.
func (e Employee) IsBeforeHire(date time.Time) bool {
	return e.HireDate != nil && date.Before(*e.HireDate)
}

// IsAfterTermination reports whether date is later than the termination date.
func (e Employee) IsAfterTermination(date time.Time) bool {
	return e.TerminationDate != nil && date.After(*e.TerminationDate)
}
