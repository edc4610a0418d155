package rawdata

import (
	"context"
	"time"
)

// EventRepository - interface for raw_events table
type EventRepository interface {
	ListByMonth(ctx context.Context, filter Filter) ([]Event, error)

	// DeleteByMonth hard-deletes events in the month, restricted to filter.EmployeeNumbers when set.
	DeleteByMonth(ctx context.Context, filter Filter) (int64, error)

	// InsertBatch stores events verbatim, keeping their ids.
	InsertBatch(ctx context.Context, events []Event) error
}

// LeaveUsageRepository - interface for leave_usages table
type LeaveUsageRepository interface {
	ListByMonth(ctx context.Context, filter Filter) ([]LeaveUsage, error)

	// DeleteByMonth hard-deletes usages in the month, restricted to filter.EmployeeIDs when set.
	DeleteByMonth(ctx context.Context, filter Filter) (int64, error)

	// InsertBatch stores usages verbatim, keeping their ids.
	InsertBatch(ctx context.Context, usages []LeaveUsage) error

	// ReplaceForDay hard-deletes every usage of employeeID on date and stores usages instead.
	ReplaceForDay(ctx context.Context, employeeID string, date time.Time, usages []LeaveUsage) error
}

// TimeCorrectionRepository - interface for time_corrections table
type TimeCorrectionRepository interface {
	ListByMonth(ctx context.Context, filter Filter) ([]TimeCorrection, error)

	// Upsert stores c, replacing the correction of the same (employee, date) and keeping its id.
	Upsert(ctx context.Context, c TimeCorrection) (TimeCorrection, error)

	// DeleteByMonth hard-deletes corrections in the month, restricted to filter.EmployeeIDs when set.
	DeleteByMonth(ctx context.Context, filter Filter) (int64, error)

	// InsertBatch stores corrections verbatim, keeping their ids.
	InsertBatch(ctx context.Context, corrections []TimeCorrection) error
}
