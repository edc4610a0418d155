package snapshot

import "context"

type Service interface {
	// Create captures the scope's month and returns the new snapshot id.
	Create(ctx context.Context, req CreateRequest) (string, error)

	// Restore replaces the month's raw and derived state with the snapshot's.
	Restore(ctx context.Context, req RestoreRequest) (RestoreResponse, error)

	List(ctx context.Context, filter ListFilter) ([]Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
}
