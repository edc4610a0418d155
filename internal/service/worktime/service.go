package worktime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/google/uuid"
)

// WorkTimeServiceImpl manages overrides and holidays. Changes take effect on
// the next generation of the affected month.
type WorkTimeServiceImpl struct {
	worktime.OverrideRepository
	worktime.HolidayRepository
	now    func() time.Time
	logger *slog.Logger
}

func NewWorkTimeService(
	overrideRepo worktime.OverrideRepository,
	holidayRepo worktime.HolidayRepository,
	now func() time.Time,
	logger *slog.Logger,
) worktime.Service {
	return &WorkTimeServiceImpl{
		OverrideRepository: overrideRepo,
		HolidayRepository:  holidayRepo,
		now:                now,
		logger:             logger,
	}
}

// SetOverride implements worktime.Service.
func (s *WorkTimeServiceImpl) SetOverride(ctx context.Context, req worktime.SetOverrideRequest) (worktime.Override, error) {
	if err := req.Validate(); err != nil {
		return worktime.Override{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return worktime.Override{}, fmt.Errorf("generate override id: %w", err)
	}
	now := s.now()

	saved, err := s.OverrideRepository.Upsert(ctx, worktime.Override{
		ID:            id.String(),
		Date:          req.ParsedDate,
		StartWorkTime: req.ParsedStart,
		EndWorkTime:   req.ParsedEnd,
		Reason:        req.Reason,
		CreatedBy:     req.PerformedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return worktime.Override{}, fmt.Errorf("failed to save work time override: %w", err)
	}

	s.logger.Info("Work time override set",
		"date", calendar.DateKey(saved.Date),
		"start", calendar.TextPtr(saved.StartWorkTime),
		"end", calendar.TextPtr(saved.EndWorkTime),
		"performed_by", req.PerformedBy)
	return saved, nil
}

// DeleteOverride implements worktime.Service.
func (s *WorkTimeServiceImpl) DeleteOverride(ctx context.Context, date time.Time) error {
	if err := s.OverrideRepository.DeleteByDate(ctx, date); err != nil {
		return fmt.Errorf("failed to delete work time override: %w", err)
	}
	s.logger.Info("Work time override deleted", "date", calendar.DateKey(date))
	return nil
}

// ListOverrides implements worktime.Service.
func (s *WorkTimeServiceImpl) ListOverrides(ctx context.Context, ym calendar.YearMonth) ([]worktime.Override, error) {
	overrides, err := s.OverrideRepository.ListByMonth(ctx, ym)
	if err != nil {
		return nil, fmt.Errorf("failed to list work time overrides: %w", err)
	}
	return overrides, nil
}

// AddHoliday implements worktime.Service.
func (s *WorkTimeServiceImpl) AddHoliday(ctx context.Context, req worktime.AddHolidayRequest) (worktime.Holiday, error) {
	if err := req.Validate(); err != nil {
		return worktime.Holiday{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return worktime.Holiday{}, fmt.Errorf("generate holiday id: %w", err)
	}

	holiday, err := s.HolidayRepository.Create(ctx, worktime.Holiday{
		ID:   id.String(),
		Date: req.ParsedDate,
		Name: req.Name,
	})
	if err != nil {
		return worktime.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return holiday, nil
}

// ListHolidays implements worktime.Service.
func (s *WorkTimeServiceImpl) ListHolidays(ctx context.Context, ym calendar.YearMonth) ([]worktime.Holiday, error) {
	holidays, err := s.HolidayRepository.ListByMonth(ctx, ym)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}
