package worktime

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Policy answers work-time questions for one month. It is immutable and safe
// for concurrent use.
type Policy struct {
	settings  worktime.Settings
	overrides map[string]worktime.Override
	holidays  map[string]worktime.Holiday
}

func NewPolicy(settings worktime.Settings, cal worktime.Calendar) *Policy {
	p := &Policy{
		settings:  settings,
		overrides: make(map[string]worktime.Override, len(cal.Overrides)),
		holidays:  make(map[string]worktime.Holiday, len(cal.Holidays)),
	}
	for _, o := range cal.Overrides {
		p.overrides[calendar.DateKey(o.Date)] = o
	}
	for _, h := range cal.Holidays {
		p.holidays[calendar.DateKey(h.Date)] = h
	}
	return p
}

func (p *Policy) Settings() worktime.Settings {
	return p.settings
}

// NormalWindow returns the expected start and end of work on date.
func (p *Policy) NormalWindow(date time.Time) (calendar.TimeOfDay, calendar.TimeOfDay) {
	start, end := p.settings.WorkStart, p.settings.WorkEnd
	if o, ok := p.overrides[calendar.DateKey(date)]; ok {
		if o.StartWorkTime != nil {
			start = *o.StartWorkTime
		}
		if o.EndWorkTime != nil {
			end = *o.EndWorkTime
		}
	}
	return start, end
}

// IsHoliday reports weekends and registered holidays.
func (p *Policy) IsHoliday(date time.Time) bool {
	if calendar.IsWeekend(date) {
		return true
	}
	_, ok := p.holidays[calendar.DateKey(date)]
	return ok
}

func (p *Policy) IsRecognized(lt leave.LeaveType) bool {
	return lt.IsRecognizedWorkTime
}

// CoversMorning reports whether lt covers the normal start up to lunch.
func (p *Policy) CoversMorning(lt leave.LeaveType, date time.Time) bool {
	start, _ := p.NormalWindow(date)
	return p.covers(lt, start, p.settings.LunchStart)
}

// CoversAfternoon reports whether lt covers the end of lunch up to the normal end.
func (p *Policy) CoversAfternoon(lt leave.LeaveType, date time.Time) bool {
	_, end := p.NormalWindow(date)
	return p.covers(lt, p.settings.LunchEnd, end)
}

// CoversFullDay reports whether lt covers the whole normal window.
func (p *Policy) CoversFullDay(lt leave.LeaveType, date time.Time) bool {
	start, end := p.NormalWindow(date)
	return p.covers(lt, start, end)
}

// covers treats a missing end of the declared window as unbounded.
func (p *Policy) covers(lt leave.LeaveType, from, to calendar.TimeOfDay) bool {
	if !p.IsRecognized(lt) {
		return false
	}
	if lt.StartWorkTime != nil && lt.StartWorkTime.After(from) {
		return false
	}
	if lt.EndWorkTime != nil && lt.EndWorkTime.Before(to) {
		return false
	}
	return true
}

// Exemptions for the late and early-leave judgements. Any of them wins over
// the raw time comparison.
type Exemptions struct {
	IsHoliday        bool
	BeforeHire       bool
	AfterTermination bool
}

func (e Exemptions) Any() bool {
	return e.IsHoliday || e.BeforeHire || e.AfterTermination
}

// IsLate reports a real enter strictly after the normal start.
func (p *Policy) IsLate(realEnter *calendar.TimeOfDay, date time.Time, morningRecognized bool, ex Exemptions) bool {
	if realEnter == nil || morningRecognized || ex.Any() {
		return false
	}
	start, _ := p.NormalWindow(date)
	return realEnter.After(start)
}

// IsEarlyLeave reports a real leave strictly before the normal end.
func (p *Policy) IsEarlyLeave(realLeave *calendar.TimeOfDay, date time.Time, afternoonRecognized bool, ex Exemptions) bool {
	if realLeave == nil || afternoonRecognized || ex.Any() {
		return false
	}
	_, end := p.NormalWindow(date)
	return realLeave.Before(end)
}
