package leave

import (
	"context"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	ListAll(ctx context.Context) ([]LeaveType, error)
	GetByIDs(ctx context.Context, ids []string) ([]LeaveType, error)
}
