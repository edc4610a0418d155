package attendance

import "errors"

// Attendance domain errors
var (
	ErrDailyFactNotFound      = errors.New("daily attendance fact not found")
	ErrMonthlySummaryNotFound = errors.New("monthly attendance summary not found")
	ErrFutureMonth            = errors.New("month has not started yet")
)
