package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// DailyFactRepository - interface for daily_attendance_facts table.
// Reads only return live rows unless stated otherwise.
type DailyFactRepository interface {
	GetByID(ctx context.Context, id string) (DailyFact, error)

	// ListByMonth returns live facts ordered by employee then date. Nil employeeIDs means all.
	ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]DailyFact, error)

	// SoftDeleteByMonth tombstones the month's live facts for the given employees.
	SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error)

	// UpsertBatch is keyed by (employee, date). An existing row, tombstoned or not,
	// keeps its id and monthly summary link and becomes live again.
	UpsertBatch(ctx context.Context, facts []DailyFact) ([]DailyFact, error)

	Update(ctx context.Context, fact DailyFact) error

	LinkMonthlySummary(ctx context.Context, factIDs []string, summaryID string) error
}

// MonthlySummaryRepository - interface for monthly_attendance_summaries table
type MonthlySummaryRepository interface {
	GetByEmployeeMonth(ctx context.Context, employeeID string, ym calendar.YearMonth) (MonthlySummary, error)
	ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]MonthlySummary, error)
	SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error)

	// Upsert is keyed by (employee, yyyymm) and revives a tombstoned row in place.
	Upsert(ctx context.Context, summary MonthlySummary) (MonthlySummary, error)
}
