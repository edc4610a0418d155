package rawdata

import "errors"

var (
	ErrDuplicateLeaveUsage = errors.New("leave usage already exists for employee, date and leave type")
)
