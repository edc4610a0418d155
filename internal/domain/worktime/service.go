package worktime

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Service manages the mutable part of the work-time policy.
type Service interface {
	SetOverride(ctx context.Context, req SetOverrideRequest) (Override, error)
	DeleteOverride(ctx context.Context, date time.Time) error
	ListOverrides(ctx context.Context, ym calendar.YearMonth) ([]Override, error)

	AddHoliday(ctx context.Context, req AddHolidayRequest) (Holiday, error)
	ListHolidays(ctx context.Context, ym calendar.YearMonth) ([]Holiday, error)
}
