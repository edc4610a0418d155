package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Legal break tiers, in minutes of elapsed time.
const (
	shortShiftMinutes = 240
	fullShiftMinutes  = 480

	shortShiftBreak = 30
	fullShiftBreak  = 60
)

// BreakDeduction returns the unpaid break for an elapsed span.
func BreakDeduction(spanMinutes int) int {
	switch {
	case spanMinutes >= fullShiftMinutes:
		return fullShiftBreak
	case spanMinutes >= shortShiftMinutes:
		return shortShiftBreak
	default:
		return 0
	}
}

// SpanWorkMinutes is the elapsed span minus the legal break, never negative.
func SpanWorkMinutes(spanMinutes int) int {
	if spanMinutes <= 0 {
		return 0
	}
	return spanMinutes - BreakDeduction(spanMinutes)
}

// WorkMinutes derives a fact's work time. Both the daily calculation and the
// monthly weekly breakdown go through here.
//
// Attended days count the displayed enter to leave span. Days with only
// recognized leave count the leave types' declared minutes. Anything else is nil.
func WorkMinutes(f attendance.DailyFact) *int {
	attended := f.RealEnter != nil || f.RealLeave != nil
	if attended && f.Enter != nil && f.Leave != nil {
		m := SpanWorkMinutes(f.Enter.MinutesUntil(*f.Leave))
		return &m
	}

	recognized := false
	total := 0
	for _, u := range f.UsedLeaveTypes {
		if !u.IsRecognizedWorkTime {
			continue
		}
		recognized = true
		total += u.WorkTimeMinutes
	}
	if recognized {
		return &total
	}
	return nil
}
