package postgresql

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// pgTime maps a TimeOfDay onto a TIME column; nil becomes NULL.
func pgTime(t *calendar.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: int64(*t) * int64(time.Second/time.Microsecond), Valid: true}
}

func timeOfDay(t pgtype.Time) *calendar.TimeOfDay {
	if !t.Valid {
		return nil
	}
	v := calendar.TimeOfDay(t.Microseconds / int64(time.Second/time.Microsecond))
	return &v
}

// monthBounds returns the first and last date of ym for inclusive DATE ranges.
func monthBounds(ym calendar.YearMonth) (time.Time, time.Time) {
	return ym.FirstDay(), ym.LastDay()
}
