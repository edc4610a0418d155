package worktime

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SetOverrideRequest struct {
	Date          string  `json:"date"`
	StartWorkTime *string `json:"start_work_time"`
	EndWorkTime   *string `json:"end_work_time"`
	Reason        string  `json:"reason"`
	PerformedBy   string  `json:"-"`

	// Parsed by Validate
	ParsedDate  time.Time           `json:"-"`
	ParsedStart *calendar.TimeOfDay `json:"-"`
	ParsedEnd   *calendar.TimeOfDay `json:"-"`
}

func (r *SetOverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if date, ok := validator.IsValidDate(r.Date); !ok {
		errs = errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.ParsedDate = date
	}

	if r.StartWorkTime != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.StartWorkTime); ok {
			r.ParsedStart = &t
		} else {
			errs = errs.Add("start_work_time", "start_work_time must be in HH:MM:SS format")
		}
	}
	if r.EndWorkTime != nil {
		if t, ok := validator.IsValidTimeOfDay(*r.EndWorkTime); ok {
			r.ParsedEnd = &t
		} else {
			errs = errs.Add("end_work_time", "end_work_time must be in HH:MM:SS format")
		}
	}
	if r.StartWorkTime == nil && r.EndWorkTime == nil {
		errs = errs.Add("start_work_time", "at least one of start_work_time or end_work_time is required")
	}
	if r.ParsedStart != nil && r.ParsedEnd != nil && !r.ParsedStart.Before(*r.ParsedEnd) {
		errs = errs.Add("end_work_time", "end_work_time must be after start_work_time")
	}

	if validator.IsEmpty(r.Reason) {
		errs = errs.Add("reason", "reason is required")
	}
	if validator.IsEmpty(r.PerformedBy) {
		errs = errs.Add("performed_by", "performed_by is required")
	}

	return errs.Err()
}

type AddHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`

	ParsedDate time.Time `json:"-"`
}

func (r *AddHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if date, ok := validator.IsValidDate(r.Date); !ok {
		errs = errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.ParsedDate = date
	}
	if validator.IsEmpty(r.Name) {
		errs = errs.Add("name", "name is required")
	}

	return errs.Err()
}
