package worktime

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// OverrideRepository - interface for work_time_overrides table
type OverrideRepository interface {
	ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]Override, error)
	// Upsert creates or replaces the override for override.Date.
	Upsert(ctx context.Context, override Override) (Override, error)
	DeleteByDate(ctx context.Context, date time.Time) error
}

// HolidayRepository - interface for holidays table
type HolidayRepository interface {
	ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]Holiday, error)
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
}
