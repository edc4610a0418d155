package snapshot

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// SnapshotRepository - interface for snapshots and snapshot_children tables
type SnapshotRepository interface {
	// Create stores the snapshot and its children together.
	Create(ctx context.Context, snapshot Snapshot) (Snapshot, error)

	CountByScopeMonth(ctx context.Context, scope Scope, ym calendar.YearMonth) (int, error)

	// GetByID returns the snapshot with its children.
	GetByID(ctx context.Context, id string) (Snapshot, error)

	// List returns snapshots without children, newest first.
	List(ctx context.Context, filter ListFilter) ([]Snapshot, error)
}
