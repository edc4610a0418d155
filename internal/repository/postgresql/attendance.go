package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type dailyFactRepositoryImpl struct {
	db *database.DB
}

func NewDailyFactRepository(db *database.DB) attendance.DailyFactRepository {
	return &dailyFactRepositoryImpl{db: db}
}

const dailyFactColumns = `id, employee_id, date, is_holiday, enter, leave, real_enter, real_leave,
	work_time_minutes, is_late, is_absent, is_early_leave, has_conflict, has_overlap,
	used_leave_types, note, monthly_summary_id, created_at, updated_at, deleted_at`

func scanDailyFact(row pgx.Row) (attendance.DailyFact, error) {
	var (
		f                                  attendance.DailyFact
		enter, leave, realEnter, realLeave pgtype.Time
		usedLeaveTypes                     []byte
	)
	err := row.Scan(
		&f.ID, &f.EmployeeID, &f.Date, &f.IsHoliday,
		&enter, &leave, &realEnter, &realLeave,
		&f.WorkTimeMinutes, &f.IsLate, &f.IsAbsent, &f.IsEarlyLeave, &f.HasConflict, &f.HasOverlap,
		&usedLeaveTypes, &f.Note, &f.MonthlySummaryID, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt,
	)
	if err != nil {
		return f, err
	}
	f.Enter = timeOfDay(enter)
	f.Leave = timeOfDay(leave)
	f.RealEnter = timeOfDay(realEnter)
	f.RealLeave = timeOfDay(realLeave)
	if err := json.Unmarshal(usedLeaveTypes, &f.UsedLeaveTypes); err != nil {
		return f, fmt.Errorf("failed to decode used leave types: %w", err)
	}
	return f, nil
}

func usedLeaveTypesJSON(f attendance.DailyFact) ([]byte, error) {
	return json.Marshal(nonNilSlice(f.UsedLeaveTypes))
}

// GetByID implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.DailyFact, error) {
	q := GetQuerier(ctx, r.db)

	f, err := scanDailyFact(q.QueryRow(ctx, `
		SELECT `+dailyFactColumns+`
		FROM daily_attendance_facts
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyFact{}, attendance.ErrDailyFactNotFound
		}
		return attendance.DailyFact{}, fmt.Errorf("failed to get daily fact by id %s: %w", id, err)
	}
	return f, nil
}

// ListByMonth implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]attendance.DailyFact, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(ym)

	rows, err := q.Query(ctx, `
		SELECT `+dailyFactColumns+`
		FROM daily_attendance_facts
		WHERE date BETWEEN $1 AND $2
			AND deleted_at IS NULL
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
		ORDER BY employee_id, date
	`, first, last, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily facts: %w", err)
	}
	defer rows.Close()

	var facts []attendance.DailyFact
	for rows.Next() {
		f, err := scanDailyFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// SoftDeleteByMonth implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(ym)

	tag, err := q.Exec(ctx, `
		UPDATE daily_attendance_facts
		SET deleted_at = NOW()
		WHERE date BETWEEN $1 AND $2
			AND deleted_at IS NULL
			AND ($3::uuid[] IS NULL OR employee_id = ANY($3))
	`, first, last, employeeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete daily facts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertBatch implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) UpsertBatch(ctx context.Context, facts []attendance.DailyFact) ([]attendance.DailyFact, error) {
	if len(facts) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, f := range facts {
		used, err := usedLeaveTypesJSON(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode used leave types: %w", err)
		}
		batch.Queue(`
			INSERT INTO daily_attendance_facts (
				id, employee_id, date, is_holiday, enter, leave, real_enter, real_leave,
				work_time_minutes, is_late, is_absent, is_early_leave, has_conflict, has_overlap,
				used_leave_types, note, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (employee_id, date) DO UPDATE SET
				is_holiday = EXCLUDED.is_holiday,
				enter = EXCLUDED.enter,
				leave = EXCLUDED.leave,
				real_enter = EXCLUDED.real_enter,
				real_leave = EXCLUDED.real_leave,
				work_time_minutes = EXCLUDED.work_time_minutes,
				is_late = EXCLUDED.is_late,
				is_absent = EXCLUDED.is_absent,
				is_early_leave = EXCLUDED.is_early_leave,
				has_conflict = EXCLUDED.has_conflict,
				has_overlap = EXCLUDED.has_overlap,
				used_leave_types = EXCLUDED.used_leave_types,
				note = EXCLUDED.note,
				updated_at = EXCLUDED.updated_at,
				deleted_at = NULL
			RETURNING id, monthly_summary_id, created_at
		`,
			f.ID, f.EmployeeID, f.Date, f.IsHoliday,
			pgTime(f.Enter), pgTime(f.Leave), pgTime(f.RealEnter), pgTime(f.RealLeave),
			f.WorkTimeMinutes, f.IsLate, f.IsAbsent, f.IsEarlyLeave, f.HasConflict, f.HasOverlap,
			used, f.Note, f.CreatedAt, f.UpdatedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	out := make([]attendance.DailyFact, 0, len(facts))
	for _, f := range facts {
		if err := results.QueryRow().Scan(&f.ID, &f.MonthlySummaryID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to upsert daily fact for %s on %s: %w", f.EmployeeID, calendar.DateKey(f.Date), err)
		}
		f.DeletedAt = nil
		out = append(out, f)
	}
	return out, nil
}

// Update implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) Update(ctx context.Context, f attendance.DailyFact) error {
	q := GetQuerier(ctx, r.db)

	used, err := usedLeaveTypesJSON(f)
	if err != nil {
		return fmt.Errorf("failed to encode used leave types: %w", err)
	}

	tag, err := q.Exec(ctx, `
		UPDATE daily_attendance_facts SET
			is_holiday = $2,
			enter = $3,
			leave = $4,
			real_enter = $5,
			real_leave = $6,
			work_time_minutes = $7,
			is_late = $8,
			is_absent = $9,
			is_early_leave = $10,
			has_conflict = $11,
			has_overlap = $12,
			used_leave_types = $13,
			note = $14,
			monthly_summary_id = $15,
			updated_at = $16
		WHERE id = $1 AND deleted_at IS NULL
	`,
		f.ID, f.IsHoliday,
		pgTime(f.Enter), pgTime(f.Leave), pgTime(f.RealEnter), pgTime(f.RealLeave),
		f.WorkTimeMinutes, f.IsLate, f.IsAbsent, f.IsEarlyLeave, f.HasConflict, f.HasOverlap,
		used, f.Note, f.MonthlySummaryID, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update daily fact %s: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrDailyFactNotFound
	}
	return nil
}

// LinkMonthlySummary implements attendance.DailyFactRepository.
func (r *dailyFactRepositoryImpl) LinkMonthlySummary(ctx context.Context, factIDs []string, summaryID string) error {
	if len(factIDs) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE daily_attendance_facts
		SET monthly_summary_id = $1
		WHERE id = ANY($2)
	`, summaryID, factIDs)
	if err != nil {
		return fmt.Errorf("failed to link daily facts to summary %s: %w", summaryID, err)
	}
	return nil
}

type monthlySummaryRepositoryImpl struct {
	db *database.DB
}

func NewMonthlySummaryRepository(db *database.DB) attendance.MonthlySummaryRepository {
	return &monthlySummaryRepositoryImpl{db: db}
}

const monthlySummaryColumns = `id, employee_id, yyyymm, work_days_count, total_work_time_minutes,
	total_workable_time_minutes, avg_work_time_minutes, leave_type_counts, weekly_breakdown,
	late_details, absence_details, early_leave_details, note, created_at, updated_at, deleted_at`

func scanMonthlySummary(row pgx.Row) (attendance.MonthlySummary, error) {
	var (
		s                                    attendance.MonthlySummary
		yyyymm                               string
		counts, weekly, late, absence, early []byte
	)
	err := row.Scan(
		&s.ID, &s.EmployeeID, &yyyymm, &s.WorkDaysCount, &s.TotalWorkTimeMinutes,
		&s.TotalWorkableTimeMinutes, &s.AvgWorkTimeMinutes, &counts, &weekly,
		&late, &absence, &early, &s.Note, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return s, err
	}
	if s.YearMonth, err = calendar.ParseYearMonth(yyyymm); err != nil {
		return s, fmt.Errorf("failed to parse yyyymm %q: %w", yyyymm, err)
	}
	for _, field := range []struct {
		raw []byte
		dst any
	}{
		{counts, &s.LeaveTypeCounts},
		{weekly, &s.WeeklyBreakdown},
		{late, &s.LateDetails},
		{absence, &s.AbsenceDetails},
		{early, &s.EarlyLeaveDetails},
	} {
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return s, fmt.Errorf("failed to decode monthly summary details: %w", err)
		}
	}
	return s, nil
}

// GetByEmployeeMonth implements attendance.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) GetByEmployeeMonth(ctx context.Context, employeeID string, ym calendar.YearMonth) (attendance.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanMonthlySummary(q.QueryRow(ctx, `
		SELECT `+monthlySummaryColumns+`
		FROM monthly_attendance_summaries
		WHERE employee_id = $1 AND yyyymm = $2 AND deleted_at IS NULL
	`, employeeID, ym.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.MonthlySummary{}, attendance.ErrMonthlySummaryNotFound
		}
		return attendance.MonthlySummary{}, fmt.Errorf("failed to get monthly summary: %w", err)
	}
	return s, nil
}

// ListByMonth implements attendance.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]attendance.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+monthlySummaryColumns+`
		FROM monthly_attendance_summaries
		WHERE yyyymm = $1
			AND deleted_at IS NULL
			AND ($2::uuid[] IS NULL OR employee_id = ANY($2))
		ORDER BY employee_id
	`, ym.String(), employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attendance.MonthlySummary
	for rows.Next() {
		s, err := scanMonthlySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SoftDeleteByMonth implements attendance.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE monthly_attendance_summaries
		SET deleted_at = NOW()
		WHERE yyyymm = $1
			AND deleted_at IS NULL
			AND ($2::uuid[] IS NULL OR employee_id = ANY($2))
	`, ym.String(), employeeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete monthly summaries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Upsert implements attendance.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) Upsert(ctx context.Context, s attendance.MonthlySummary) (attendance.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	encoded := make([][]byte, 0, 5)
	for _, v := range []any{
		nonNilMap(s.LeaveTypeCounts),
		nonNilSlice(s.WeeklyBreakdown),
		nonNilSlice(s.LateDetails),
		nonNilSlice(s.AbsenceDetails),
		nonNilSlice(s.EarlyLeaveDetails),
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return attendance.MonthlySummary{}, fmt.Errorf("failed to encode monthly summary details: %w", err)
		}
		encoded = append(encoded, b)
	}

	err := q.QueryRow(ctx, `
		INSERT INTO monthly_attendance_summaries (
			id, employee_id, yyyymm, work_days_count, total_work_time_minutes,
			total_workable_time_minutes, avg_work_time_minutes, leave_type_counts, weekly_breakdown,
			late_details, absence_details, early_leave_details, note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (employee_id, yyyymm) DO UPDATE SET
			work_days_count = EXCLUDED.work_days_count,
			total_work_time_minutes = EXCLUDED.total_work_time_minutes,
			total_workable_time_minutes = EXCLUDED.total_workable_time_minutes,
			avg_work_time_minutes = EXCLUDED.avg_work_time_minutes,
			leave_type_counts = EXCLUDED.leave_type_counts,
			weekly_breakdown = EXCLUDED.weekly_breakdown,
			late_details = EXCLUDED.late_details,
			absence_details = EXCLUDED.absence_details,
			early_leave_details = EXCLUDED.early_leave_details,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING id, created_at
	`,
		s.ID, s.EmployeeID, s.YearMonth.String(), s.WorkDaysCount, s.TotalWorkTimeMinutes,
		s.TotalWorkableTimeMinutes, s.AvgWorkTimeMinutes, encoded[0], encoded[1],
		encoded[2], encoded[3], encoded[4], s.Note, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return attendance.MonthlySummary{}, fmt.Errorf("failed to upsert monthly summary for %s: %w", s.EmployeeID, err)
	}
	s.DeletedAt = nil
	return s, nil
}

func nonNilMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
