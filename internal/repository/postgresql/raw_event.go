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

type eventRepositoryImpl struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) rawdata.EventRepository {
	return &eventRepositoryImpl{db: db}
}

// ListByMonth implements rawdata.EventRepository.
func (r *eventRepositoryImpl) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.Event, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	rows, err := q.Query(ctx, `
		SELECT id, employee_number, date, time_of_day, created_at
		FROM raw_events
		WHERE date BETWEEN $1 AND $2
			AND ($3::text[] IS NULL OR employee_number = ANY($3))
		ORDER BY date, time_of_day, id
	`, first, last, filter.EmployeeNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw events: %w", err)
	}
	defer rows.Close()

	var events []rawdata.Event
	for rows.Next() {
		var (
			ev  rawdata.Event
			tod pgtype.Time
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeNumber, &ev.Date, &tod, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw event: %w", err)
		}
		if t := timeOfDay(tod); t != nil {
			ev.TimeOfDay = *t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteByMonth implements rawdata.EventRepository.
func (r *eventRepositoryImpl) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	q := GetQuerier(ctx, r.db)
	first, last := monthBounds(filter.Month)

	tag, err := q.Exec(ctx, `
		DELETE FROM raw_events
		WHERE date BETWEEN $1 AND $2
			AND ($3::text[] IS NULL OR employee_number = ANY($3))
	`, first, last, filter.EmployeeNumbers)
	if err != nil {
		return 0, fmt.Errorf("failed to delete raw events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch implements rawdata.EventRepository.
func (r *eventRepositoryImpl) InsertBatch(ctx context.Context, events []rawdata.Event) error {
	if len(events) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)
	now := time.Now()

	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"raw_events"},
		[]string{"id", "employee_number", "date", "time_of_day", "created_at"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			ev := events[i]
			createdAt := ev.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			return []any{ev.ID, ev.EmployeeNumber, ev.Date, pgTime(&ev.TimeOfDay), createdAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert raw events: %w", err)
	}
	return nil
}
