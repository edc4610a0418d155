package snapshot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendancesvc "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	issuesvc "github.com/cmlabs-hris/attendance-engine/internal/service/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	march2024 = calendar.YearMonth{Year: 2024, Month: time.March}
	testNow   = time.Date(2024, time.April, 3, 9, 0, 0, 0, time.UTC)
	sickLeave = leave.LeaveType{ID: "lt-sick", Title: "Sick Leave", WorkTimeMinutes: 480, IsRecognizedWorkTime: true}
	deptEng   = "dept-eng"
	deptOps   = "dept-ops"
)

type snapshotFixture struct {
	repos  repository.Registry
	engine *attendancesvc.AttendanceServiceImpl
	svc    *SnapshotServiceImpl
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployees(
		employee.Employee{ID: "emp-1", EmployeeNumber: "E001", FullName: "Ayu", DepartmentID: &deptEng},
		employee.Employee{ID: "emp-2", EmployeeNumber: "E002", FullName: "Bima", DepartmentID: &deptOps},
	)
	store.PutLeaveTypes(sickLeave)

	repos := store.Registry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return testNow }
	locker := lock.NewLocal()
	detector := issuesvc.NewDetector(repos.Issues, repos.Transactor, now, logger)
	engine := attendancesvc.NewAttendanceService(repos, locker, detector, attendancesvc.Options{Now: now}, logger)

	return &snapshotFixture{
		repos:  repos,
		engine: engine,
		svc:    NewSnapshotService(repos, locker, engine, now, logger),
	}
}

func date(s string) time.Time {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *snapshotFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.repos.Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-1", EmployeeNumber: "E001", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("08:58"), CreatedAt: testNow},
		{ID: "ev-2", EmployeeNumber: "E001", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("18:02"), CreatedAt: testNow},
		{ID: "ev-3", EmployeeNumber: "E002", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("09:31"), CreatedAt: testNow},
		{ID: "ev-4", EmployeeNumber: "E002", Date: date("2024-03-04"), TimeOfDay: calendar.MustParseTimeOfDay("17:00"), CreatedAt: testNow},
	}))
	require.NoError(t, f.repos.LeaveUsages.InsertBatch(ctx, []rawdata.LeaveUsage{
		{ID: "lu-1", EmployeeID: "emp-1", Date: date("2024-03-05"), LeaveTypeID: sickLeave.ID, CreatedAt: testNow},
	}))

	req := attendance.GenerateRequest{Year: 2024, Month: 3, PerformedBy: "admin-1"}
	_, err := f.engine.GenerateDailySummaries(ctx, req)
	require.NoError(t, err)
	_, err = f.engine.GenerateMonthlySummaries(ctx, req)
	require.NoError(t, err)
}

func (f *snapshotFixture) create(t *testing.T, req snapshot.CreateRequest) snapshot.Snapshot {
	t.Helper()
	id, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	snap, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	return snap
}

func companyRequest() snapshot.CreateRequest {
	return snapshot.CreateRequest{Scope: string(snapshot.ScopeCompany), Year: 2024, Month: 3, PerformedBy: "admin-1"}
}

type derivedState struct {
	events      []rawdata.Event
	usages      []rawdata.LeaveUsage
	corrections []rawdata.TimeCorrection
	facts       []attendance.DailyFact
	summaries   []attendance.MonthlySummary
}

func (f *snapshotFixture) state(t *testing.T) derivedState {
	t.Helper()
	ctx := context.Background()
	var (
		s   derivedState
		err error
	)
	s.events, err = f.repos.Events.ListByMonth(ctx, rawdata.Filter{Month: march2024})
	require.NoError(t, err)
	s.usages, err = f.repos.LeaveUsages.ListByMonth(ctx, rawdata.Filter{Month: march2024})
	require.NoError(t, err)
	s.corrections, err = f.repos.TimeCorrections.ListByMonth(ctx, rawdata.Filter{Month: march2024})
	require.NoError(t, err)
	s.facts, err = f.repos.DailyFacts.ListByMonth(ctx, march2024, nil)
	require.NoError(t, err)
	s.summaries, err = f.repos.MonthlySummaries.ListByMonth(ctx, march2024, nil)
	require.NoError(t, err)
	return s
}

// ===== CREATE TESTS =====

func TestSnapshotService_Create_CapturesEveryEmployee(t *testing.T) {
	f := newSnapshotFixture(t)
	f.seed(t)

	snap := f.create(t, companyRequest())

	assert.Equal(t, "A", snap.Version)
	assert.Equal(t, "admin-1", snap.ApprovedBy)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "emp-1", snap.Children[0].EmployeeID)

	require.NoError(t, snap.Children[0].Verify())
	p, err := snapshot.DecodePayload(snap.Children[0].Payload)
	require.NoError(t, err)
	assert.Len(t, p.Events, 2)
	require.Len(t, p.LeaveUsages, 1)
	require.Len(t, p.LeaveTypes, 1)
	assert.Equal(t, sickLeave.ID, p.LeaveTypes[0].ID)
	assert.Len(t, p.DailyFacts, 31)
	require.NotNil(t, p.MonthlySummary)
	assert.Equal(t, 2, p.MonthlySummary.WorkDaysCount)
}

func TestSnapshotService_Create_VersionsPerScope(t *testing.T) {
	f := newSnapshotFixture(t)
	f.seed(t)

	first := f.create(t, companyRequest())
	second := f.create(t, companyRequest())
	dept := f.create(t, snapshot.CreateRequest{Scope: string(snapshot.ScopeDepartment), DepartmentID: &deptOps, Year: 2024, Month: 3, PerformedBy: "admin-1"})

	assert.Equal(t, "A", first.Version)
	assert.Equal(t, "B", second.Version)
	assert.Equal(t, "A", dept.Version)
	require.Len(t, dept.Children, 1)
	assert.Equal(t, "emp-2", dept.Children[0].EmployeeID)

	list, err := f.svc.List(context.Background(), snapshot.ListFilter{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, s := range list {
		assert.Empty(t, s.Children)
	}
}

func TestSnapshotService_Create_Empty(t *testing.T) {
	f := newSnapshotFixture(t)

	_, err := f.svc.Create(context.Background(), companyRequest())

	assert.ErrorIs(t, err, snapshot.ErrSnapshotEmpty)
}

func TestSnapshotService_Create_ScopeLocked(t *testing.T) {
	f := newSnapshotFixture(t)
	f.seed(t)
	locker := lock.NewLocal()
	f.svc.locker = locker
	release, err := locker.Acquire(context.Background(), attendance.ScopeLockKey(march2024))
	require.NoError(t, err)
	defer release(context.Background())

	_, err = f.svc.Create(context.Background(), companyRequest())

	assert.ErrorIs(t, err, lock.ErrScopeLocked)
}

// ===== RESTORE TESTS =====

func TestSnapshotService_Restore_RoundTrip(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)
	captured := f.state(t)
	snap := f.create(t, companyRequest())

	// raw data drifts after the snapshot
	require.NoError(t, f.repos.Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-late", EmployeeNumber: "E001", Date: date("2024-03-06"), TimeOfDay: calendar.MustParseTimeOfDay("10:00"), CreatedAt: testNow},
	}))
	require.NoError(t, f.repos.LeaveUsages.ReplaceForDay(ctx, "emp-1", date("2024-03-05"), nil))

	resp, err := f.svc.Restore(ctx, snapshot.RestoreRequest{ID: snap.ID, PerformedBy: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.RawEventCount)
	assert.Equal(t, 1, resp.LeaveUsageCount)
	assert.Equal(t, 62, resp.DailyFactCount)
	assert.Equal(t, 2, resp.MonthlySummaryCount)

	restored := f.state(t)
	assert.Equal(t, captured.events, restored.events)
	assert.Equal(t, captured.usages, restored.usages)
	assert.Equal(t, captured.facts, restored.facts)
	assert.Equal(t, captured.summaries, restored.summaries)
}

func TestSnapshotService_Restore_Idempotent(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)
	snap := f.create(t, companyRequest())
	req := snapshot.RestoreRequest{ID: snap.ID, PerformedBy: "admin-1"}

	_, err := f.svc.Restore(ctx, req)
	require.NoError(t, err)
	first := f.state(t)

	resp, err := f.svc.Restore(ctx, req)
	require.NoError(t, err)
	second := f.state(t)

	assert.Equal(t, first, second)
	assert.Zero(t, resp.IssueCount)
}

func TestSnapshotService_Restore_DepartmentLeavesOthersAlone(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)
	snap := f.create(t, snapshot.CreateRequest{Scope: string(snapshot.ScopeDepartment), DepartmentID: &deptOps, Year: 2024, Month: 3, PerformedBy: "admin-1"})

	require.NoError(t, f.repos.Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-e001", EmployeeNumber: "E001", Date: date("2024-03-07"), TimeOfDay: calendar.MustParseTimeOfDay("09:00"), CreatedAt: testNow},
		{ID: "ev-e002", EmployeeNumber: "E002", Date: date("2024-03-07"), TimeOfDay: calendar.MustParseTimeOfDay("09:00"), CreatedAt: testNow},
	}))

	_, err := f.svc.Restore(ctx, snapshot.RestoreRequest{ID: snap.ID, PerformedBy: "admin-1"})
	require.NoError(t, err)

	events, err := f.repos.Events.ListByMonth(ctx, rawdata.Filter{Month: march2024})
	require.NoError(t, err)
	var ids []string
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	assert.ElementsMatch(t, []string{"ev-1", "ev-2", "ev-3", "ev-4", "ev-e001"}, ids)
}

func TestSnapshotService_Restore_MalformedPayload(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)
	before := f.state(t)
	malformed := json.RawMessage(`{"schema_version":1,`)

	_, err := f.repos.Snapshots.Create(ctx, snapshot.Snapshot{
		ID:      "snap-bad",
		Scope:   snapshot.Scope{Type: snapshot.ScopeCompany},
		Year:    2024,
		Month:   3,
		Version: "A",
		Children: []snapshot.Child{
			{ID: "child-1", SnapshotID: "snap-bad", EmployeeID: "emp-1", Payload: malformed, Digest: snapshot.PayloadDigest(malformed)},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, snapshot.RestoreRequest{ID: "snap-bad", PerformedBy: "admin-1"})

	assert.ErrorIs(t, err, snapshot.ErrSnapshotPayloadMalformed)
	assert.Equal(t, before, f.state(t))
}

func TestSnapshotService_Restore_KeepsRowsWithoutDirectoryEmployee(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-e999", EmployeeNumber: "E999", Date: date("2024-03-06"), TimeOfDay: calendar.MustParseTimeOfDay("09:00"), CreatedAt: testNow},
	}))
	require.NoError(t, f.repos.LeaveUsages.InsertBatch(ctx, []rawdata.LeaveUsage{
		{ID: "lu-gone", EmployeeID: "emp-gone", Date: date("2024-03-07"), LeaveTypeID: sickLeave.ID, CreatedAt: testNow},
	}))
	f.seed(t)
	before := f.state(t)
	require.Len(t, before.events, 5)

	snap := f.create(t, companyRequest())
	require.Len(t, snap.Children, 3)
	var unassigned snapshot.Payload
	for _, c := range snap.Children {
		require.NoError(t, c.Verify())
		p, err := snapshot.DecodePayload(c.Payload)
		require.NoError(t, err)
		if p.Unassigned {
			assert.Equal(t, snapshot.UnassignedEmployeeID, c.EmployeeID)
			unassigned = p
		}
	}
	require.Len(t, unassigned.Events, 1)
	assert.Equal(t, "ev-e999", unassigned.Events[0].ID)
	require.Len(t, unassigned.LeaveUsages, 1)
	assert.Equal(t, "lu-gone", unassigned.LeaveUsages[0].ID)

	res, err := f.svc.Restore(ctx, snapshot.RestoreRequest{ID: snap.ID, PerformedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.RawEventCount)
	assert.Equal(t, 2, res.LeaveUsageCount)

	assert.Equal(t, before, f.state(t))
}

func TestSnapshotService_Create_DepartmentHasNoUnassignedChild(t *testing.T) {
	f := newSnapshotFixture(t)
	require.NoError(t, f.repos.Events.InsertBatch(context.Background(), []rawdata.Event{
		{ID: "ev-e999", EmployeeNumber: "E999", Date: date("2024-03-06"), TimeOfDay: calendar.MustParseTimeOfDay("09:00"), CreatedAt: testNow},
	}))
	f.seed(t)

	snap := f.create(t, snapshot.CreateRequest{Scope: string(snapshot.ScopeDepartment), DepartmentID: &deptOps, Year: 2024, Month: 3, PerformedBy: "admin-1"})

	require.Len(t, snap.Children, 1)
	assert.Equal(t, "emp-2", snap.Children[0].EmployeeID)
}

func TestSnapshotService_Restore_BringsBackTimeCorrections(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)

	facts, err := f.repos.DailyFacts.ListByMonth(ctx, march2024, []string{"emp-2"})
	require.NoError(t, err)
	var lateID string
	for _, fact := range facts {
		if calendar.DateKey(fact.Date) == "2024-03-04" {
			lateID = fact.ID
		}
	}
	require.NotEmpty(t, lateID)

	correct := func(enter string) {
		t.Helper()
		_, err := f.engine.UpdateDailyFact(ctx, attendance.UpdateDailyFactRequest{ID: lateID, Enter: &enter, Reason: "badge reader down", PerformedBy: "admin-1"})
		require.NoError(t, err)
	}
	correct("08:55")
	captured := f.state(t)
	require.Len(t, captured.corrections, 1)
	snap := f.create(t, companyRequest())

	correct("08:30")
	require.NotEqual(t, captured.corrections, f.state(t).corrections)

	res, err := f.svc.Restore(ctx, snapshot.RestoreRequest{ID: snap.ID, PerformedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TimeCorrectionCount)

	after := f.state(t)
	assert.Equal(t, captured.corrections, after.corrections)
	fact, err := f.engine.GetDailyFact(ctx, lateID)
	require.NoError(t, err)
	assert.Equal(t, "08:55:00", fact.RealEnter.String())
	assert.False(t, fact.IsLate)
}

func TestSnapshotService_Restore_TamperedPayload(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	f.seed(t)
	snap := f.create(t, companyRequest())
	before := f.state(t)

	child := snap.Children[0]
	child.ID = "child-tampered"
	child.SnapshotID = "snap-tampered"
	child.Payload = json.RawMessage(strings.Replace(string(child.Payload), `"schema_version":1`, `"schema_version":1 `, 1))
	_, err := f.repos.Snapshots.Create(ctx, snapshot.Snapshot{
		ID:       "snap-tampered",
		Scope:    snapshot.Scope{Type: snapshot.ScopeCompany},
		Year:     2024,
		Month:    3,
		Version:  "B",
		Children: []snapshot.Child{child},
	})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, snapshot.RestoreRequest{ID: "snap-tampered", PerformedBy: "admin-1"})

	assert.ErrorIs(t, err, snapshot.ErrSnapshotPayloadMalformed)
	assert.ErrorContains(t, err, "digest mismatch")
	assert.Equal(t, before, f.state(t))
}

func TestSnapshotService_Restore_NoChildren(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()
	_, err := f.repos.Snapshots.Create(ctx, snapshot.Snapshot{ID: "snap-empty", Scope: snapshot.Scope{Type: snapshot.ScopeCompany}, Year: 2024, Month: 3, Version: "A"})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, snapshot.RestoreRequest{ID: "snap-empty", PerformedBy: "admin-1"})

	assert.ErrorIs(t, err, snapshot.ErrSnapshotEmpty)
}

func TestSnapshotService_Restore_NotFound(t *testing.T) {
	f := newSnapshotFixture(t)

	_, err := f.svc.Restore(context.Background(), snapshot.RestoreRequest{ID: "missing", PerformedBy: "admin-1"})

	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
}
