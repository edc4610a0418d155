package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type timeCorrectionRepositoryImpl struct {
	db *database.DB
}

func NewTimeCorrectionRepository(db *database.DB) rawdata.TimeCorrectionRepository {
	return &timeCorrectionRepositoryImpl{db: db}
}

// ListByMonth implements rawdata.TimeCorrectionRepository.
func (r *timeCorrectionRepositoryImpl) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.TimeCorrection, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, date, enter_time, leave_time, reason, created_by, created_at, updated_at
		FROM time_corrections
		WHERE date BETWEEN $1 AND $2
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
		ORDER BY employee_id, date
	`, first, last, filter.EmployeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list time corrections: %w", err)
	}
	defer rows.Close()

	var corrections []rawdata.TimeCorrection
	for rows.Next() {
		var (
			c            rawdata.TimeCorrection
			enter, leave pgtype.Time
		)
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.Date, &enter, &leave, &c.Reason, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan time correction: %w", err)
		}
		c.Enter = timeOfDay(enter)
		c.Leave = timeOfDay(leave)
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// Upsert implements rawdata.TimeCorrectionRepository.
func (r *timeCorrectionRepositoryImpl) Upsert(ctx context.Context, c rawdata.TimeCorrection) (rawdata.TimeCorrection, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO time_corrections (id, employee_id, date, enter_time, leave_time, reason, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			enter_time = EXCLUDED.enter_time,
			leave_time = EXCLUDED.leave_time,
			reason = EXCLUDED.reason,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`, c.ID, c.EmployeeID, c.Date, pgTime(c.Enter), pgTime(c.Leave), c.Reason, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return rawdata.TimeCorrection{}, fmt.Errorf("failed to upsert time correction: %w", err)
	}
	return c, nil
}

// DeleteByMonth implements rawdata.TimeCorrectionRepository.
func (r *timeCorrectionRepositoryImpl) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	tag, err := q.Exec(ctx, `
		DELETE FROM time_corrections
		WHERE date BETWEEN $1 AND $2
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
	`, first, last, filter.EmployeeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete time corrections: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch implements rawdata.TimeCorrectionRepository.
func (r *timeCorrectionRepositoryImpl) InsertBatch(ctx context.Context, corrections []rawdata.TimeCorrection) error {
	if len(corrections) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)
	now := time.Now()

	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"time_corrections"},
		[]string{"id", "employee_id", "date", "enter_time", "leave_time", "reason", "created_by", "created_at", "updated_at"},
		pgx.CopyFromSlice(len(corrections), func(i int) ([]any, error) {
			c := corrections[i]
			createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			if updatedAt.IsZero() {
				updatedAt = createdAt
			}
			return []any{c.ID, c.EmployeeID, c.Date, pgTime(c.Enter), pgTime(c.Leave), c.Reason, c.CreatedBy, createdAt, updatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert time corrections: %w", err)
	}
	return nil
}
