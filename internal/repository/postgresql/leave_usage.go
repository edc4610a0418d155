package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveUsageRepositoryImpl struct {
	db *database.DB
}

func NewLeaveUsageRepository(db *database.DB) rawdata.LeaveUsageRepository {
	return &leaveUsageRepositoryImpl{db: db}
}

// ListByMonth implements rawdata.LeaveUsageRepository.
func (r *leaveUsageRepositoryImpl) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.LeaveUsage, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, date, leave_type_id, created_at
		FROM leave_usages
		WHERE date BETWEEN $1 AND $2
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
		ORDER BY employee_id, date, id
	`, first, last, filter.EmployeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave usages: %w", err)
	}
	defer rows.Close()

	var usages []rawdata.LeaveUsage
	for rows.Next() {
		var u rawdata.LeaveUsage
		if err := rows.Scan(&u.ID, &u.EmployeeID, &u.Date, &u.LeaveTypeID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leave usage: %w", err)
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// DeleteByMonth implements rawdata.LeaveUsageRepository.
func (r *leaveUsageRepositoryImpl) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	tag, err := q.Exec(ctx, `
		DELETE FROM leave_usages
		WHERE date BETWEEN $1 AND $2
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
	`, first, last, filter.EmployeeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete leave usages: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch implements rawdata.LeaveUsageRepository.
func (r *leaveUsageRepositoryImpl) InsertBatch(ctx context.Context, usages []rawdata.LeaveUsage) error {
	if len(usages) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)
	now := time.Now()

	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"leave_usages"},
		[]string{"id", "employee_id", "date", "leave_type_id", "created_at"},
		pgx.CopyFromSlice(len(usages), func(i int) ([]any, error) {
			u := usages[i]
			createdAt := u.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			return []any{u.ID, u.EmployeeID, u.Date, u.LeaveTypeID, createdAt}, nil
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return rawdata.ErrDuplicateLeaveUsage
		}
		return fmt.Errorf("failed to insert leave usages: %w", err)
	}
	return nil
}

// ReplaceForDay implements rawdata.LeaveUsageRepository.
func (r *leaveUsageRepositoryImpl) ReplaceForDay(ctx context.Context, employeeID string, date time.Time, usages []rawdata.LeaveUsage) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM leave_usages WHERE employee_id = $1 AND date = $2`, employeeID, date); err != nil {
		return fmt.Errorf("failed to clear leave usages for day: %w", err)
	}
	if len(usages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range usages {
		createdAt := u.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		batch.Queue(`
			INSERT INTO leave_usages (id, employee_id, date, leave_type_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, u.ID, u.EmployeeID, u.Date, u.LeaveTypeID, createdAt)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return rawdata.ErrDuplicateLeaveUsage
		}
		return fmt.Errorf("failed to insert leave usages for day: %w", err)
	}
	return nil
}
