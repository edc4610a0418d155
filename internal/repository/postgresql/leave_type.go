package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

const leaveTypeColumns = `id, title, work_time_minutes, is_recognized_work_time,
	start_work_time, end_work_time, deducted_annual_leave_days`

func scanLeaveTypes(rows pgx.Rows) ([]leave.LeaveType, error) {
	defer rows.Close()
	var out []leave.LeaveType
	for rows.Next() {
		var (
			lt         leave.LeaveType
			start, end pgtype.Time
		)
		if err := rows.Scan(&lt.ID, &lt.Title, &lt.WorkTimeMinutes, &lt.IsRecognizedWorkTime,
			&start, &end, &lt.DeductedAnnualLeaveDays); err != nil {
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		lt.StartWorkTime = timeOfDay(start)
		lt.EndWorkTime = timeOfDay(end)
		out = append(out, lt)
	}
	return out, rows.Err()
}

// ListAll implements leave.LeaveTypeRepository.
func (l *leaveTypeRepositoryImpl) ListAll(ctx context.Context) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, l.db)
	rows, err := q.Query(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	return scanLeaveTypes(rows)
}

// GetByIDs implements leave.LeaveTypeRepository.
func (l *leaveTypeRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]leave.LeaveType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, l.db)
	rows, err := q.Query(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave types: %w", err)
	}
	return scanLeaveTypes(rows)
}
