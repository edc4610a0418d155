package issue

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Detector raises at most one issue per daily fact.
type Detector interface {
	// Detect returns how many issues it created. Per-employee failures are logged and skipped.
	Detect(ctx context.Context, facts []attendance.DailyFact) (int, error)
}

// Service drives the issue review workflow.
type Service interface {
	SetDescription(ctx context.Context, req SetDescriptionRequest) (Issue, error)
	SetCorrection(ctx context.Context, req SetCorrectionRequest) (Issue, error)
	Apply(ctx context.Context, req ApplyRequest) (Issue, error)
	Reject(ctx context.Context, req RejectRequest) (Issue, error)
	ReRequest(ctx context.Context, req ReRequestRequest) (Issue, error)

	List(ctx context.Context, filter Filter) ([]Issue, error)
	Get(ctx context.Context, id string) (Issue, error)
}
