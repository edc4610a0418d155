package worktime

import "errors"

var (
	ErrOverrideNotFound = errors.New("work time override not found")
	ErrHolidayExists    = errors.New("holiday already exists for date")
)
