package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
)

// SystemActor is recorded as performed_by for scheduled runs.
const SystemActor = "system:cron"

type AttendanceJobs struct {
	attendanceService attendance.Service
	now               func() time.Time
	loc               *time.Location
	logger            *slog.Logger
}

func NewAttendanceJobs(attendanceService attendance.Service, now func() time.Time, loc *time.Location, logger *slog.Logger) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		now:               now,
		loc:               loc,
		logger:            logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, dailySpec, monthlySpec string) error {
	if err := scheduler.AddJob("generate_daily_summaries", dailySpec, j.GenerateCurrentMonth); err != nil {
		return err
	}
	return scheduler.AddJob("generate_monthly_summaries", monthlySpec, j.ClosePreviousMonth)
}

// GenerateCurrentMonth recomputes the daily facts of the running month.
func (j *AttendanceJobs) GenerateCurrentMonth(ctx context.Context) error {
	ym := calendar.YearMonthOf(j.now().In(j.loc))

	res, err := j.attendanceService.GenerateDailySummaries(ctx, generateRequest(ym))
	if errors.Is(err, lock.ErrScopeLocked) {
		j.logger.Warn("Cron: month busy, skipping daily generation", "yyyymm", ym.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate daily summaries %s: %w", ym, err)
	}

	j.logger.Info("Cron: daily summaries generated",
		"yyyymm", ym.String(),
		"daily_fact_count", res.DailyFactCount,
		"issue_count", res.IssueCount)
	return nil
}

// ClosePreviousMonth recomputes the previous month's daily facts, then its monthly summaries.
func (j *AttendanceJobs) ClosePreviousMonth(ctx context.Context) error {
	ym := calendar.YearMonthOf(j.now().In(j.loc)).Previous()
	req := generateRequest(ym)

	if _, err := j.attendanceService.GenerateDailySummaries(ctx, req); err != nil {
		return fmt.Errorf("generate daily summaries %s: %w", ym, err)
	}
	res, err := j.attendanceService.GenerateMonthlySummaries(ctx, req)
	if err != nil {
		return fmt.Errorf("generate monthly summaries %s: %w", ym, err)
	}

	j.logger.Info("Cron: monthly summaries generated",
		"yyyymm", ym.String(),
		"monthly_summary_count", res.MonthlySummaryCount)
	return nil
}

func generateRequest(ym calendar.YearMonth) attendance.GenerateRequest {
	return attendance.GenerateRequest{
		Year:        ym.Year,
		Month:       int(ym.Month),
		PerformedBy: SystemActor,
	}
}
