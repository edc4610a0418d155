package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	worktimesvc "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	morning = leave.LeaveType{ID: "lt-morning", Title: "Morning Leave", WorkTimeMinutes: 240, IsRecognizedWorkTime: true, StartWorkTime: tod("09:00"), EndWorkTime: tod("13:00")}
	sick    = leave.LeaveType{ID: "lt-sick", Title: "Sick Leave", WorkTimeMinutes: 480, IsRecognizedWorkTime: true, StartWorkTime: tod("09:00"), EndWorkTime: tod("18:00")}
)

func newTestCalculator() *calculator {
	policy := worktimesvc.NewPolicy(worktime.DefaultSettings(), worktime.Calendar{})
	return newCalculator(policy, []leave.LeaveType{afternoon, fullDay, unpaid, morning, sick})
}

func usagesOf(date time.Time, ids ...string) []rawdata.LeaveUsage {
	var out []rawdata.LeaveUsage
	for _, id := range ids {
		out = append(out, rawdata.LeaveUsage{ID: "u-" + id, EmployeeID: empAlice, Date: date, LeaveTypeID: id})
	}
	return out
}

func TestBreakDeduction(t *testing.T) {
	cases := []struct {
		span int
		want int
	}{
		{0, 0},
		{239, 0},
		{240, 30},
		{479, 30},
		{480, 60},
		{720, 60},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BreakDeduction(c.span), "span %d", c.span)
	}
	assert.Equal(t, 0, SpanWorkMinutes(-15))
}

func TestWorkMinutes_NoSignal(t *testing.T) {
	assert.Nil(t, WorkMinutes(attendance.DailyFact{}))
}

func TestCalculator_MorningLeaveExcusesLateArrival(t *testing.T) {
	c := newTestCalculator()
	date := day("2024-03-04")

	f := c.calculateDay(employee.Employee{ID: empAlice}, date, dayInput{
		realEnter: tod("13:05"),
		realLeave: tod("18:00"),
		usages:    usagesOf(date, morning.ID),
	})

	assert.False(t, f.IsLate)
	assert.False(t, f.IsAbsent)
	assert.Equal(t, "09:00:00", f.Enter.String())
	require.NotNil(t, f.WorkTimeMinutes)
	assert.Equal(t, 540-60, *f.WorkTimeMinutes)
}

func TestCalculator_ConflictWhenAttendingFullDayLeave(t *testing.T) {
	c := newTestCalculator()
	date := day("2024-03-04")

	f := c.calculateDay(employee.Employee{ID: empAlice}, date, dayInput{
		realEnter: tod("09:00"),
		realLeave: tod("18:00"),
		usages:    usagesOf(date, sick.ID),
	})

	assert.True(t, f.HasConflict)
	assert.False(t, f.IsAbsent)
}

func TestCalculator_HalfDaysCombineIntoFullDay(t *testing.T) {
	c := newTestCalculator()
	date := day("2024-03-04")

	f := c.calculateDay(employee.Employee{ID: empAlice}, date, dayInput{
		usages: usagesOf(date, afternoon.ID, morning.ID),
	})

	assert.False(t, f.IsAbsent)
	require.NotNil(t, f.WorkTimeMinutes)
	assert.Equal(t, 480, *f.WorkTimeMinutes)
	assert.False(t, f.HasOverlap)
}

func TestCalculator_OverlapOnIdenticalWindows(t *testing.T) {
	c := newTestCalculator()
	date := day("2024-03-04")

	f := c.calculateDay(employee.Employee{ID: empAlice}, date, dayInput{
		usages: usagesOf(date, fullDay.ID, sick.ID),
	})

	assert.True(t, f.HasOverlap)
	assert.True(t, f.NeedsReview())
}

func TestCalculator_EmploymentBoundsExemptDays(t *testing.T) {
	c := newTestCalculator()
	hired := day("2024-03-13")
	terminated := day("2024-03-20")
	emp := employee.Employee{ID: empAlice, HireDate: &hired, TerminationDate: &terminated}

	before := c.calculateDay(emp, day("2024-03-12"), dayInput{})
	assert.False(t, before.IsAbsent)

	onHire := c.calculateDay(emp, hired, dayInput{})
	assert.True(t, onHire.IsAbsent)

	after := c.calculateDay(emp, day("2024-03-21"), dayInput{realEnter: tod("10:00"), realLeave: tod("12:00")})
	assert.False(t, after.IsLate)
	assert.False(t, after.IsEarlyLeave)
}

func TestCalculator_LateAndEarlyLeaveNote(t *testing.T) {
	c := newTestCalculator()

	f := c.calculateDay(employee.Employee{ID: empAlice}, day("2024-03-04"), dayInput{
		realEnter: tod("09:15:30"),
		realLeave: tod("17:45"),
	})

	assert.Equal(t, "late 09:15:30, early leave 17:45:00", f.Note)
}
