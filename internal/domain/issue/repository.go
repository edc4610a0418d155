package issue

import (
	"context"
)

// IssueRepository - interface for attendance_issues table
type IssueRepository interface {
	// Create fails with ErrIssueAlreadyExists when the fact already has a live issue.
	Create(ctx context.Context, issue Issue) (Issue, error)

	// ExistsForDailyFacts returns the subset of factIDs that already have a live issue.
	ExistsForDailyFacts(ctx context.Context, factIDs []string) (map[string]bool, error)

	GetByID(ctx context.Context, id string) (Issue, error)
	Update(ctx context.Context, issue Issue) error
	List(ctx context.Context, filter Filter) ([]Issue, error)
}
