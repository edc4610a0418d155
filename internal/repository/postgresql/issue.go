package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type issueRepositoryImpl struct {
	db *database.DB
}

func NewIssueRepository(db *database.DB) issue.IssueRepository {
	return &issueRepositoryImpl{db: db}
}

const issueColumns = `id, employee_id, date, daily_fact_id,
	problematic_enter, problematic_leave, problematic_leave_type_ids,
	corrected_enter, corrected_leave, corrected_leave_type_ids,
	status, description, rejection_reason, confirmed_by, confirmed_at,
	created_at, updated_at, deleted_at`

func scanIssue(row pgx.Row) (issue.Issue, error) {
	var (
		i                                          issue.Issue
		probEnter, probLeave, corrEnter, corrLeave pgtype.Time
	)
	err := row.Scan(
		&i.ID, &i.EmployeeID, &i.Date, &i.DailyFactID,
		&probEnter, &probLeave, &i.ProblematicLeaveTypeIDs,
		&corrEnter, &corrLeave, &i.CorrectedLeaveTypeIDs,
		&i.Status, &i.Description, &i.RejectionReason, &i.ConfirmedBy, &i.ConfirmedAt,
		&i.CreatedAt, &i.UpdatedAt, &i.DeletedAt,
	)
	if err != nil {
		return i, err
	}
	i.ProblematicEnter = timeOfDay(probEnter)
	i.ProblematicLeave = timeOfDay(probLeave)
	i.CorrectedEnter = timeOfDay(corrEnter)
	i.CorrectedLeave = timeOfDay(corrLeave)
	return i, nil
}

// Create implements issue.IssueRepository.
func (r *issueRepositoryImpl) Create(ctx context.Context, i issue.Issue) (issue.Issue, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO attendance_issues (
			id, employee_id, date, daily_fact_id,
			problematic_enter, problematic_leave, problematic_leave_type_ids,
			corrected_enter, corrected_leave, corrected_leave_type_ids,
			status, description, rejection_reason, confirmed_by, confirmed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (daily_fact_id) WHERE deleted_at IS NULL DO NOTHING
		RETURNING id
	`,
		i.ID, i.EmployeeID, i.Date, i.DailyFactID,
		pgTime(i.ProblematicEnter), pgTime(i.ProblematicLeave), nonNilSlice(i.ProblematicLeaveTypeIDs),
		pgTime(i.CorrectedEnter), pgTime(i.CorrectedLeave), nonNilSlice(i.CorrectedLeaveTypeIDs),
		i.Status, i.Description, i.RejectionReason, i.ConfirmedBy, i.ConfirmedAt,
		i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return issue.Issue{}, issue.ErrIssueAlreadyExists
		}
		return issue.Issue{}, fmt.Errorf("failed to create attendance issue: %w", err)
	}
	return i, nil
}

// ExistsForDailyFacts implements issue.IssueRepository.
func (r *issueRepositoryImpl) ExistsForDailyFacts(ctx context.Context, factIDs []string) (map[string]bool, error) {
	exists := make(map[string]bool)
	if len(factIDs) == 0 {
		return exists, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT daily_fact_id
		FROM attendance_issues
		WHERE daily_fact_id = ANY($1) AND deleted_at IS NULL
	`, factIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing attendance issues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan daily fact id: %w", err)
		}
		exists[id] = true
	}
	return exists, rows.Err()
}

// GetByID implements issue.IssueRepository.
func (r *issueRepositoryImpl) GetByID(ctx context.Context, id string) (issue.Issue, error) {
	q := GetQuerier(ctx, r.db)

	i, err := scanIssue(q.QueryRow(ctx, `
		SELECT `+issueColumns+`
		FROM attendance_issues
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return issue.Issue{}, issue.ErrIssueNotFound
		}
		return issue.Issue{}, fmt.Errorf("failed to get attendance issue by id %s: %w", id, err)
	}
	return i, nil
}

// Update implements issue.IssueRepository.
func (r *issueRepositoryImpl) Update(ctx context.Context, i issue.Issue) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE attendance_issues SET
			corrected_enter = $2,
			corrected_leave = $3,
			corrected_leave_type_ids = $4,
			status = $5,
			description = $6,
			rejection_reason = $7,
			confirmed_by = $8,
			confirmed_at = $9,
			updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`,
		i.ID, pgTime(i.CorrectedEnter), pgTime(i.CorrectedLeave), nonNilSlice(i.CorrectedLeaveTypeIDs),
		i.Status, i.Description, i.RejectionReason, i.ConfirmedBy, i.ConfirmedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance issue %s: %w", i.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return issue.ErrIssueNotFound
	}
	return nil
}

// List implements issue.IssueRepository.
func (r *issueRepositoryImpl) List(ctx context.Context, filter issue.Filter) ([]issue.Issue, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.YearMonth())

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := q.Query(ctx, `
		SELECT `+issueColumns+`
		FROM attendance_issues
		WHERE date BETWEEN $1 AND $2
			AND deleted_at IS NULL
			AND ($3::text IS NULL OR status = $3)
			AND ($4::uuid IS NULL OR employee_id = $4)
		ORDER BY date, employee_id
	`, first, last, status, filter.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance issues: %w", err)
	}
	defer rows.Close()

	var issues []issue.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance issue: %w", err)
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}
