package worktime

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/stretchr/testify/assert"
)

func tod(s string) *calendar.TimeOfDay {
	t := calendar.MustParseTimeOfDay(s)
	return &t
}

func date(s string) time.Time {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestPolicy() *Policy {
	return NewPolicy(worktime.DefaultSettings(), worktime.Calendar{
		Overrides: []worktime.Override{
			{Date: date("2024-03-06"), StartWorkTime: tod("10:00:00")},
			{Date: date("2024-03-07"), EndWorkTime: tod("15:00:00")},
		},
		Holidays: []worktime.Holiday{
			{Date: date("2024-03-11"), Name: "Nyepi"},
		},
	})
}

func TestPolicy_NormalWindow(t *testing.T) {
	p := newTestPolicy()

	start, end := p.NormalWindow(date("2024-03-05"))
	assert.Equal(t, "09:00:00", start.String())
	assert.Equal(t, "18:00:00", end.String())

	start, end = p.NormalWindow(date("2024-03-06"))
	assert.Equal(t, "10:00:00", start.String())
	assert.Equal(t, "18:00:00", end.String())

	start, end = p.NormalWindow(date("2024-03-07"))
	assert.Equal(t, "09:00:00", start.String())
	assert.Equal(t, "15:00:00", end.String())
}

func TestPolicy_IsHoliday(t *testing.T) {
	p := newTestPolicy()
	assert.True(t, p.IsHoliday(date("2024-03-09")), "saturday")
	assert.True(t, p.IsHoliday(date("2024-03-10")), "sunday")
	assert.True(t, p.IsHoliday(date("2024-03-11")), "registered holiday")
	assert.False(t, p.IsHoliday(date("2024-03-12")))
}

func TestPolicy_IsLateBoundary(t *testing.T) {
	p := newTestPolicy()
	day := date("2024-03-05")

	assert.False(t, p.IsLate(tod("09:00:00"), day, false, Exemptions{}))
	assert.True(t, p.IsLate(tod("09:00:01"), day, false, Exemptions{}))
	assert.False(t, p.IsLate(nil, day, false, Exemptions{}))

	// exemptions win over the time comparison
	assert.False(t, p.IsLate(tod("11:00:00"), day, true, Exemptions{}))
	assert.False(t, p.IsLate(tod("11:00:00"), day, false, Exemptions{IsHoliday: true}))
	assert.False(t, p.IsLate(tod("11:00:00"), day, false, Exemptions{BeforeHire: true}))
	assert.False(t, p.IsLate(tod("11:00:00"), day, false, Exemptions{AfterTermination: true}))

	// override moves the boundary
	assert.False(t, p.IsLate(tod("10:00:00"), date("2024-03-06"), false, Exemptions{}))
	assert.True(t, p.IsLate(tod("10:00:01"), date("2024-03-06"), false, Exemptions{}))
}

func TestPolicy_IsEarlyLeave(t *testing.T) {
	p := newTestPolicy()
	day := date("2024-03-05")

	assert.False(t, p.IsEarlyLeave(tod("18:00:00"), day, false, Exemptions{}))
	assert.True(t, p.IsEarlyLeave(tod("17:59:59"), day, false, Exemptions{}))
	assert.False(t, p.IsEarlyLeave(tod("12:00:00"), day, true, Exemptions{}))
	assert.False(t, p.IsEarlyLeave(tod("15:00:00"), date("2024-03-07"), false, Exemptions{}))
}

func TestPolicy_Coverage(t *testing.T) {
	p := newTestPolicy()
	day := date("2024-03-05")

	fullDay := leave.LeaveType{ID: "annual", IsRecognizedWorkTime: true}
	morning := leave.LeaveType{ID: "am", IsRecognizedWorkTime: true, StartWorkTime: tod("09:00:00"), EndWorkTime: tod("13:00:00")}
	afternoon := leave.LeaveType{ID: "pm", IsRecognizedWorkTime: true, StartWorkTime: tod("13:00:00"), EndWorkTime: tod("18:00:00")}
	unpaid := leave.LeaveType{ID: "unpaid", IsRecognizedWorkTime: false}

	tests := []struct {
		name                       string
		lt                         leave.LeaveType
		morning, afternoon, wholly bool
	}{
		{"no window", fullDay, true, true, true},
		{"morning half", morning, true, false, false},
		{"afternoon half", afternoon, false, true, false},
		{"not recognized", unpaid, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.morning, p.CoversMorning(tt.lt, day))
			assert.Equal(t, tt.afternoon, p.CoversAfternoon(tt.lt, day))
			assert.Equal(t, tt.wholly, p.CoversFullDay(tt.lt, day))
		})
	}

	// a later start on an override day still counts as a morning
	late := leave.LeaveType{ID: "late", IsRecognizedWorkTime: true, StartWorkTime: tod("10:00:00"), EndWorkTime: tod("13:00:00")}
	assert.False(t, p.CoversMorning(late, day))
	assert.True(t, p.CoversMorning(late, date("2024-03-06")))
}
