package postgresql_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = calendar.YearMonth{Year: 2024, Month: time.March}

func newRegistry(t *testing.T) repository.Registry {
	setup := NewTestDatabase(t)
	return postgresql.NewRegistry(setup.DB)
}

func date(s string) time.Time {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFact(employeeID, day string) attendance.DailyFact {
	enter := calendar.MustParseTimeOfDay("09:10")
	leave := calendar.MustParseTimeOfDay("18:00")
	minutes := 470
	now := time.Now().UTC().Truncate(time.Microsecond)
	return attendance.DailyFact{
		ID:              uuid.NewString(),
		EmployeeID:      employeeID,
		Date:            date(day),
		Enter:           &enter,
		Leave:           &leave,
		RealEnter:       &enter,
		RealLeave:       &leave,
		WorkTimeMinutes: &minutes,
		IsLate:          true,
		Note:            "late 09:10:00",
		UsedLeaveTypes:  []attendance.UsedLeaveType{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestDailyFactRepository_UpsertBatch_KeepsIdentity(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()
	employeeID := uuid.NewString()

	first, err := repos.DailyFacts.UpsertBatch(ctx, []attendance.DailyFact{newFact(employeeID, "2024-03-04")})
	require.NoError(t, err)
	require.Len(t, first, 1)

	deleted, err := repos.DailyFacts.SoftDeleteByMonth(ctx, march, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repos.DailyFacts.GetByID(ctx, first[0].ID)
	assert.ErrorIs(t, err, attendance.ErrDailyFactNotFound)

	again := newFact(employeeID, "2024-03-04")
	again.IsLate = false
	second, err := repos.DailyFacts.UpsertBatch(ctx, []attendance.DailyFact{again})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	got, err := repos.DailyFacts.GetByID(ctx, first[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsLate)
	assert.Equal(t, "09:10:00", got.Enter.String())
	assert.Nil(t, got.DeletedAt)
}

func TestMonthlySummaryRepository_Upsert_LinksFacts(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()
	employeeID := uuid.NewString()

	facts, err := repos.DailyFacts.UpsertBatch(ctx, []attendance.DailyFact{newFact(employeeID, "2024-03-04")})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	summary, err := repos.MonthlySummaries.Upsert(ctx, attendance.MonthlySummary{
		ID:                 uuid.NewString(),
		EmployeeID:         employeeID,
		YearMonth:          march,
		WorkDaysCount:      1,
		AvgWorkTimeMinutes: decimal.RequireFromString("470"),
		LeaveTypeCounts:    map[string]int{},
		LateDetails:        []attendance.DayDetail{{Date: "2024-03-04", Minutes: 10}},
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	require.NoError(t, err)
	require.NoError(t, repos.DailyFacts.LinkMonthlySummary(ctx, []string{facts[0].ID}, summary.ID))

	got, err := repos.MonthlySummaries.GetByEmployeeMonth(ctx, employeeID, march)
	require.NoError(t, err)
	assert.Equal(t, summary.ID, got.ID)
	assert.True(t, got.AvgWorkTimeMinutes.Equal(decimal.NewFromInt(470)))
	assert.Len(t, got.LateDetails, 1)

	fact, err := repos.DailyFacts.GetByID(ctx, facts[0].ID)
	require.NoError(t, err)
	require.NotNil(t, fact.MonthlySummaryID)
	assert.Equal(t, summary.ID, *fact.MonthlySummaryID)
}

func TestIssueRepository_Create_OnePerFact(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()

	facts, err := repos.DailyFacts.UpsertBatch(ctx, []attendance.DailyFact{newFact(uuid.NewString(), "2024-03-05")})
	require.NoError(t, err)
	now := time.Now().UTC()

	created, err := repos.Issues.Create(ctx, issue.NewFromFact(uuid.NewString(), facts[0], now))
	require.NoError(t, err)

	_, err = repos.Issues.Create(ctx, issue.NewFromFact(uuid.NewString(), facts[0], now))
	assert.ErrorIs(t, err, issue.ErrIssueAlreadyExists)

	exists, err := repos.Issues.ExistsForDailyFacts(ctx, []string{facts[0].ID})
	require.NoError(t, err)
	assert.True(t, exists[facts[0].ID])

	status := issue.StatusRequest
	listed, err := repos.Issues.List(ctx, issue.Filter{Year: 2024, Month: 3, Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestRawData_DeleteByMonthRespectsEmployees(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()

	err := repos.Events.InsertBatch(ctx, []rawdata.Event{
		{ID: uuid.NewString(), EmployeeNumber: "E001", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("09:00")},
		{ID: uuid.NewString(), EmployeeNumber: "E002", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("08:55")},
		{ID: uuid.NewString(), EmployeeNumber: "E001", Date: date("2024-04-01"), TimeOfDay: calendar.MustParseTimeOfDay("09:00")},
	})
	require.NoError(t, err)

	n, err := repos.Events.DeleteByMonth(ctx, rawdata.Filter{Month: march, EmployeeNumbers: []string{"E001"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repos.Events.ListByMonth(ctx, rawdata.Filter{Month: march})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "E002", left[0].EmployeeNumber)
	assert.Equal(t, "08:55:00", left[0].TimeOfDay.String())
}

func TestTimeCorrectionRepository_UpsertKeepsIdentity(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()
	employeeID := uuid.NewString()
	enter := calendar.MustParseTimeOfDay("08:55")
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := repos.TimeCorrections.Upsert(ctx, rawdata.TimeCorrection{
		ID: uuid.NewString(), EmployeeID: employeeID, Date: date("2024-03-04"),
		Enter: &enter, Reason: "badge reader down", CreatedBy: "admin-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	leave := calendar.MustParseTimeOfDay("18:30")
	second, err := repos.TimeCorrections.Upsert(ctx, rawdata.TimeCorrection{
		ID: uuid.NewString(), EmployeeID: employeeID, Date: date("2024-03-04"),
		Enter: &enter, Leave: &leave, Reason: "stayed late", CreatedBy: "admin-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	listed, err := repos.TimeCorrections.ListByMonth(ctx, rawdata.Filter{Month: march, EmployeeIDs: []string{employeeID}})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "08:55:00", listed[0].Enter.String())
	assert.Equal(t, "18:30:00", listed[0].Leave.String())
	assert.Equal(t, "stayed late", listed[0].Reason)

	n, err := repos.TimeCorrections.DeleteByMonth(ctx, rawdata.Filter{Month: march})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repos.TimeCorrections.InsertBatch(ctx, listed))
	restored, err := repos.TimeCorrections.ListByMonth(ctx, rawdata.Filter{Month: march})
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, first.ID, restored[0].ID)
	require.NotNil(t, restored[0].Enter)
	assert.Equal(t, "08:55:00", restored[0].Enter.String())
}

func TestWorkTime_OverrideUpsertAndHolidayConflict(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()
	start := calendar.MustParseTimeOfDay("10:00")
	now := time.Now().UTC()

	first, err := repos.Overrides.Upsert(ctx, worktime.Override{ID: uuid.NewString(), Date: date("2024-03-08"), StartWorkTime: &start, Reason: "audit", CreatedBy: "admin", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	second, err := repos.Overrides.Upsert(ctx, worktime.Override{ID: uuid.NewString(), Date: date("2024-03-08"), StartWorkTime: &start, Reason: "audit moved", CreatedBy: "admin", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, repos.Overrides.DeleteByDate(ctx, date("2024-03-08")))
	assert.ErrorIs(t, repos.Overrides.DeleteByDate(ctx, date("2024-03-08")), worktime.ErrOverrideNotFound)

	_, err = repos.Holidays.Create(ctx, worktime.Holiday{ID: uuid.NewString(), Date: date("2024-03-11"), Name: "Nyepi"})
	require.NoError(t, err)
	_, err = repos.Holidays.Create(ctx, worktime.Holiday{ID: uuid.NewString(), Date: date("2024-03-11"), Name: "Nyepi"})
	assert.ErrorIs(t, err, worktime.ErrHolidayExists)
}

func TestSnapshotRepository_CreateAndGet(t *testing.T) {
	repos := newRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	payload := json.RawMessage(`{"schema_version": 1}`)

	_, err := repos.Snapshots.Create(ctx, snapshot.Snapshot{
		ID:         id,
		Scope:      snapshot.Scope{Type: snapshot.ScopeCompany},
		Year:       2024,
		Month:      3,
		Version:    "A",
		ApprovedBy: "admin",
		ApprovedAt: now,
		CreatedBy:  "admin",
		CreatedAt:  now,
		Children: []snapshot.Child{
			{ID: uuid.NewString(), EmployeeID: uuid.NewString(), Payload: payload, Digest: snapshot.PayloadDigest(payload), CreatedAt: now},
		},
	})
	require.NoError(t, err)

	count, err := repos.Snapshots.CountByScopeMonth(ctx, snapshot.Scope{Type: snapshot.ScopeCompany}, march)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repos.Snapshots.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, string(payload), string(got.Children[0].Payload))
	assert.NoError(t, got.Children[0].Verify())

	_, err = repos.Snapshots.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
}

func TestAdvisoryLocker_Acquire(t *testing.T) {
	setup := NewTestDatabase(t)
	locker := postgresql.NewAdvisoryLocker(setup.DB)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "attendance:202403")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "attendance:202403")
	assert.ErrorIs(t, err, lock.ErrScopeLocked)

	other, err := locker.Acquire(ctx, "attendance:202404")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Acquire(ctx, "attendance:202403")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
