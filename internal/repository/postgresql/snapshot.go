package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type snapshotRepositoryImpl struct {
	db *database.DB
}

func NewSnapshotRepository(db *database.DB) snapshot.SnapshotRepository {
	return &snapshotRepositoryImpl{db: db}
}

const snapshotColumns = `id, scope, department_id, year, month, version,
	approved_by, approved_at, created_by, created_at`

func scanSnapshot(row pgx.Row) (snapshot.Snapshot, error) {
	var (
		s     snapshot.Snapshot
		scope string
	)
	err := row.Scan(&s.ID, &scope, &s.Scope.DepartmentID, &s.Year, &s.Month, &s.Version,
		&s.ApprovedBy, &s.ApprovedAt, &s.CreatedBy, &s.CreatedAt)
	s.Scope.Type = snapshot.ScopeType(scope)
	return s, err
}

// Create implements snapshot.SnapshotRepository. The header and children are
// written within one transaction.
func (r *snapshotRepositoryImpl) Create(ctx context.Context, s snapshot.Snapshot) (snapshot.Snapshot, error) {
	err := NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		_, err := q.Exec(ctx, `
			INSERT INTO snapshots (`+snapshotColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, s.ID, string(s.Scope.Type), s.Scope.DepartmentID, s.Year, s.Month, s.Version,
			s.ApprovedBy, s.ApprovedAt, s.CreatedBy, s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}

		if len(s.Children) == 0 {
			return nil
		}
		_, err = q.CopyFrom(ctx,
			pgx.Identifier{"snapshot_children"},
			[]string{"id", "snapshot_id", "employee_id", "payload", "payload_digest", "created_at"},
			pgx.CopyFromSlice(len(s.Children), func(i int) ([]any, error) {
				c := s.Children[i]
				return []any{c.ID, s.ID, c.EmployeeID, string(c.Payload), c.Digest, c.CreatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to create snapshot children: %w", err)
		}
		return nil
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return s, nil
}

// CountByScopeMonth implements snapshot.SnapshotRepository.
func (r *snapshotRepositoryImpl) CountByScopeMonth(ctx context.Context, scope snapshot.Scope, ym calendar.YearMonth) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM snapshots
		WHERE scope = $1
			AND department_id IS NOT DISTINCT FROM $2
			AND year = $3 AND month = $4
	`, string(scope.Type), scope.DepartmentID, ym.Year, int(ym.Month)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// GetByID implements snapshot.SnapshotRepository.
func (r *snapshotRepositoryImpl) GetByID(ctx context.Context, id string) (snapshot.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSnapshot(q.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot.Snapshot{}, snapshot.ErrSnapshotNotFound
		}
		return snapshot.Snapshot{}, fmt.Errorf("failed to get snapshot by id %s: %w", id, err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, snapshot_id, employee_id, payload::text, payload_digest, created_at
		FROM snapshot_children
		WHERE snapshot_id = $1
		ORDER BY employee_id
	`, id)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("failed to get snapshot children: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       snapshot.Child
			payload string
		)
		if err := rows.Scan(&c.ID, &c.SnapshotID, &c.EmployeeID, &payload, &c.Digest, &c.CreatedAt); err != nil {
			return snapshot.Snapshot{}, fmt.Errorf("failed to scan snapshot child: %w", err)
		}
		c.Payload = json.RawMessage(payload)
		s.Children = append(s.Children, c)
	}
	return s, rows.Err()
}

// List implements snapshot.SnapshotRepository.
func (r *snapshotRepositoryImpl) List(ctx context.Context, filter snapshot.ListFilter) ([]snapshot.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE year = $1 AND month = $2
			AND ($3::text IS NULL OR scope = $3)
		ORDER BY created_at DESC, version DESC
	`, filter.Year, filter.Month, filter.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []snapshot.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
