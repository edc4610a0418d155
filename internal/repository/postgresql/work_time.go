package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgtype"
)

type overrideRepositoryImpl struct {
	db *database.DB
}

func NewOverrideRepository(db *database.DB) worktime.OverrideRepository {
	return &overrideRepositoryImpl{db: db}
}

// ListByMonth implements worktime.OverrideRepository.
func (r *overrideRepositoryImpl) ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]worktime.Override, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(ym)

	rows, err := q.Query(ctx, `
		SELECT id, date, start_work_time, end_work_time, reason, created_by, created_at, updated_at
		FROM work_time_overrides
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to list work time overrides: %w", err)
	}
	defer rows.Close()

	var overrides []worktime.Override
	for rows.Next() {
		var (
			o          worktime.Override
			start, end pgtype.Time
		)
		if err := rows.Scan(&o.ID, &o.Date, &start, &end, &o.Reason, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work time override: %w", err)
		}
		o.StartWorkTime = timeOfDay(start)
		o.EndWorkTime = timeOfDay(end)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Upsert implements worktime.OverrideRepository.
func (r *overrideRepositoryImpl) Upsert(ctx context.Context, override worktime.Override) (worktime.Override, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO work_time_overrides (id, date, start_work_time, end_work_time, reason, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date) DO UPDATE SET
			start_work_time = EXCLUDED.start_work_time,
			end_work_time = EXCLUDED.end_work_time,
			reason = EXCLUDED.reason,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`,
		override.ID, override.Date, pgTime(override.StartWorkTime), pgTime(override.EndWorkTime),
		override.Reason, override.CreatedBy, override.CreatedAt, override.UpdatedAt,
	).Scan(&override.ID, &override.CreatedAt, &override.UpdatedAt)
	if err != nil {
		return worktime.Override{}, fmt.Errorf("failed to upsert work time override: %w", err)
	}
	return override, nil
}

// DeleteByDate implements worktime.OverrideRepository.
func (r *overrideRepositoryImpl) DeleteByDate(ctx context.Context, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM work_time_overrides WHERE date = $1`, date)
	if err != nil {
		return fmt.Errorf("failed to delete work time override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return worktime.ErrOverrideNotFound
	}
	return nil
}

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) worktime.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// ListByMonth implements worktime.HolidayRepository.
func (r *holidayRepositoryImpl) ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]worktime.Holiday, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(ym)

	rows, err := q.Query(ctx, `
		SELECT id, date, name
		FROM holidays
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []worktime.Holiday
	for rows.Next() {
		var h worktime.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Create implements worktime.HolidayRepository.
func (r *holidayRepositoryImpl) Create(ctx context.Context, holiday worktime.Holiday) (worktime.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `INSERT INTO holidays (id, date, name) VALUES ($1, $2, $3)`, holiday.ID, holiday.Date, holiday.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return worktime.Holiday{}, worktime.ErrHolidayExists
		}
		return worktime.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return holiday, nil
}
