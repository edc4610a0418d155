package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Service is the attendance summary engine.
type Service interface {
	// GenerateDailySummaries recomputes every daily fact of the month and raises issues.
	GenerateDailySummaries(ctx context.Context, req GenerateRequest) (GenerateDailyResponse, error)

	// GenerateMonthlySummaries rolls the month's daily facts into monthly summaries.
	GenerateMonthlySummaries(ctx context.Context, req GenerateRequest) (GenerateMonthlyResponse, error)

	// UpdateDailyFact applies a manual correction under the month's scope lock.
	UpdateDailyFact(ctx context.Context, req UpdateDailyFactRequest) (DailyFact, error)

	ListDailyFacts(ctx context.Context, filter DailyFactFilter) ([]DailyFact, error)
	GetDailyFact(ctx context.Context, id string) (DailyFact, error)
	ListMonthlySummaries(ctx context.Context, ym calendar.YearMonth) ([]MonthlySummary, error)
	GetMonthlySummary(ctx context.Context, employeeID string, ym calendar.YearMonth) (MonthlySummary, error)
}

// Corrector applies a manual correction inside a caller-held lock and transaction.
type Corrector interface {
	ApplyCorrection(ctx context.Context, req UpdateDailyFactRequest) (DailyFact, error)
}

// Recomputer rebuilds all derived state of a month from the given input.
// The caller holds the scope lock and the transaction.
type Recomputer interface {
	RecomputeMonth(ctx context.Context, input MonthInput, employeeIDs []string) (RecomputeResult, error)
}
