package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
	attendancesvc "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/google/uuid"
)

var _ snapshot.Service = (*SnapshotServiceImpl)(nil)

type SnapshotServiceImpl struct {
	repos      repository.Registry
	locker     lock.Locker
	recomputer attendance.Recomputer
	now        func() time.Time
	logger     *slog.Logger
}

func NewSnapshotService(repos repository.Registry, locker lock.Locker, recomputer attendance.Recomputer, now func() time.Time, logger *slog.Logger) *SnapshotServiceImpl {
	return &SnapshotServiceImpl{
		repos:      repos,
		locker:     locker,
		recomputer: recomputer,
		now:        now,
		logger:     logger,
	}
}

func (s *SnapshotServiceImpl) inScope(ctx context.Context, ym calendar.YearMonth, fn func(ctx context.Context) error) error {
	return lock.WithLock(ctx, s.locker, attendance.ScopeLockKey(ym), func(ctx context.Context) error {
		return s.repos.Transactor.WithinTransaction(ctx, fn)
	})
}

// Create implements snapshot.Service.
func (s *SnapshotServiceImpl) Create(ctx context.Context, req snapshot.CreateRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	ym := req.YearMonth()
	scope := req.ToScope()

	var created snapshot.Snapshot
	err := s.inScope(ctx, ym, func(ctx context.Context) error {
		count, err := s.repos.Snapshots.CountByScopeMonth(ctx, scope, ym)
		if err != nil {
			return fmt.Errorf("failed to count snapshots: %w", err)
		}
		version, err := snapshot.VersionLetter(count)
		if err != nil {
			return err
		}

		payloads, err := s.capture(ctx, scope, ym)
		if err != nil {
			return err
		}
		if len(payloads) == 0 {
			return snapshot.ErrSnapshotEmpty
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate snapshot id: %w", err)
		}
		now := s.now()
		snap := snapshot.Snapshot{
			ID:         id.String(),
			Scope:      scope,
			Year:       ym.Year,
			Month:      int(ym.Month),
			Version:    version,
			ApprovedBy: req.PerformedBy,
			ApprovedAt: now,
			CreatedBy:  req.PerformedBy,
			CreatedAt:  now,
		}
		for _, p := range payloads {
			raw, err := p.Encode()
			if err != nil {
				return err
			}
			childID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate snapshot child id: %w", err)
			}
			snap.Children = append(snap.Children, snapshot.Child{
				ID:         childID.String(),
				SnapshotID: snap.ID,
				EmployeeID: p.Employee.ID,
				Payload:    raw,
				Digest:     snapshot.PayloadDigest(raw),
				CreatedAt:  now,
			})
		}

		created, err = s.repos.Snapshots.Create(ctx, snap)
		if err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Snapshot created",
		"snapshot_id", created.ID,
		"scope", scope.String(),
		"yyyymm", ym.String(),
		"version", created.Version,
		"employee_count", len(created.Children),
		"performed_by", req.PerformedBy)
	return created.ID, nil
}

// capture builds one payload per employee in scope, ordered by employee id.
func (s *SnapshotServiceImpl) capture(ctx context.Context, scope snapshot.Scope, ym calendar.YearMonth) ([]snapshot.Payload, error) {
	var employeeIDs []string
	if !scope.IsCompany() {
		emps, err := s.repos.Directory.ListByDepartment(ctx, *scope.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list department employees: %w", err)
		}
		employeeIDs = make([]string, 0, len(emps))
		for _, e := range emps {
			employeeIDs = append(employeeIDs, e.ID)
		}
		if len(employeeIDs) == 0 {
			return nil, nil
		}
	}

	input, err := attendancesvc.LoadMonthInput(ctx, s.repos, ym, employeeIDs)
	if err != nil {
		return nil, err
	}
	facts, err := s.repos.DailyFacts.ListByMonth(ctx, ym, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily facts: %w", err)
	}
	summaries, err := s.repos.MonthlySummaries.ListByMonth(ctx, ym, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly summaries: %w", err)
	}

	employees := make(map[string]employee.Employee, len(input.Employees))
	for _, e := range input.Employees {
		employees[e.ID] = e
	}
	// derived rows can outlive their raw data; their employees are captured too
	var missing []string
	for _, f := range facts {
		if _, ok := employees[f.EmployeeID]; !ok {
			missing = append(missing, f.EmployeeID)
		}
	}
	for _, sm := range summaries {
		if _, ok := employees[sm.EmployeeID]; !ok {
			missing = append(missing, sm.EmployeeID)
		}
	}
	if len(missing) > 0 {
		emps, err := s.repos.Directory.GetByIDs(ctx, dedupe(missing))
		if err != nil {
			return nil, fmt.Errorf("failed to get employees: %w", err)
		}
		for _, e := range emps {
			employees[e.ID] = e
		}
	}

	leaveTypes := leave.IndexByID(input.LeaveTypes)
	payloads := make(map[string]*snapshot.Payload, len(employees))
	numberToID := make(map[string]string, len(employees))
	for id, e := range employees {
		numberToID[e.EmployeeNumber] = id
		payloads[id] = &snapshot.Payload{
			SchemaVersion:   snapshot.PayloadSchemaVersion,
			Month:           ym,
			Employee:        e,
			Events:          []rawdata.Event{},
			LeaveUsages:     []rawdata.LeaveUsage{},
			TimeCorrections: []rawdata.TimeCorrection{},
			LeaveTypes:      []leave.LeaveType{},
			Overrides:       input.Calendar.Overrides,
			Holidays:        input.Calendar.Holidays,
			DailyFacts:      []attendance.DailyFact{},
		}
	}
	if len(payloads) == 0 {
		return nil, nil
	}

	// a company restore clears the whole month, so rows without a directory
	// employee are kept in their own child and put back
	unassigned := &snapshot.Payload{
		SchemaVersion:   snapshot.PayloadSchemaVersion,
		Month:           ym,
		Employee:        employee.Employee{ID: snapshot.UnassignedEmployeeID},
		Events:          []rawdata.Event{},
		LeaveUsages:     []rawdata.LeaveUsage{},
		TimeCorrections: []rawdata.TimeCorrection{},
		LeaveTypes:      []leave.LeaveType{},
		Overrides:       []worktime.Override{},
		Holidays:        []worktime.Holiday{},
		DailyFacts:      []attendance.DailyFact{},
		Unassigned:      true,
	}

	for _, ev := range input.Events {
		if p, ok := payloads[numberToID[ev.EmployeeNumber]]; ok {
			p.Events = append(p.Events, ev)
		} else {
			unassigned.Events = append(unassigned.Events, ev)
		}
	}
	for _, c := range input.Corrections {
		if p, ok := payloads[c.EmployeeID]; ok {
			p.TimeCorrections = append(p.TimeCorrections, c)
		} else {
			unassigned.TimeCorrections = append(unassigned.TimeCorrections, c)
		}
	}
	referenced := make(map[string]map[string]bool)
	for _, u := range input.Usages {
		p, ok := payloads[u.EmployeeID]
		if !ok {
			unassigned.LeaveUsages = append(unassigned.LeaveUsages, u)
			continue
		}
		p.LeaveUsages = append(p.LeaveUsages, u)
		if referenced[u.EmployeeID] == nil {
			referenced[u.EmployeeID] = make(map[string]bool)
		}
		referenced[u.EmployeeID][u.LeaveTypeID] = true
	}
	for empID, ids := range referenced {
		for _, id := range sortedKeys(ids) {
			if lt, ok := leaveTypes[id]; ok {
				payloads[empID].LeaveTypes = append(payloads[empID].LeaveTypes, lt)
			}
		}
	}
	for _, f := range facts {
		if p, ok := payloads[f.EmployeeID]; ok {
			p.DailyFacts = append(p.DailyFacts, f)
		}
	}
	for i := range summaries {
		if p, ok := payloads[summaries[i].EmployeeID]; ok {
			p.MonthlySummary = &summaries[i]
		}
	}

	out := make([]snapshot.Payload, 0, len(payloads)+1)
	for _, id := range sortedKeys(toBoolSet(payloads)) {
		out = append(out, *payloads[id])
	}
	hasUnassigned := len(unassigned.Events) > 0 || len(unassigned.LeaveUsages) > 0 || len(unassigned.TimeCorrections) > 0
	if scope.IsCompany() && hasUnassigned {
		out = append(out, *unassigned)
	}
	return out, nil
}

// Restore implements snapshot.Service. Deleting the month's raw data,
// reinserting the snapshot's and recomputing commit as one transaction.
func (s *SnapshotServiceImpl) Restore(ctx context.Context, req snapshot.RestoreRequest) (snapshot.RestoreResponse, error) {
	if err := req.Validate(); err != nil {
		return snapshot.RestoreResponse{}, err
	}

	snap, err := s.repos.Snapshots.GetByID(ctx, req.ID)
	if err != nil {
		return snapshot.RestoreResponse{}, err
	}
	if len(snap.Children) == 0 {
		return snapshot.RestoreResponse{}, snapshot.ErrSnapshotEmpty
	}

	ym := snap.YearMonth()
	input, err := restoreInput(snap)
	if err != nil {
		return snapshot.RestoreResponse{}, err
	}

	// department restores only touch the captured employees
	var (
		employeeIDs []string
		filter      = rawdata.Filter{Month: ym}
	)
	if !snap.Scope.IsCompany() {
		employeeIDs = make([]string, 0, len(input.Employees))
		filter.EmployeeNumbers = make([]string, 0, len(input.Employees))
		for _, e := range input.Employees {
			employeeIDs = append(employeeIDs, e.ID)
			filter.EmployeeNumbers = append(filter.EmployeeNumbers, e.EmployeeNumber)
		}
		filter.EmployeeIDs = employeeIDs
	}

	start := time.Now()
	s.logger.Info("Restoring snapshot",
		"snapshot_id", snap.ID,
		"scope", snap.Scope.String(),
		"yyyymm", ym.String(),
		"version", snap.Version,
		"performed_by", req.PerformedBy)

	resp := snapshot.RestoreResponse{Year: ym.Year, Month: int(ym.Month)}
	err = s.inScope(ctx, ym, func(ctx context.Context) error {
		if _, err := s.repos.Events.DeleteByMonth(ctx, filter); err != nil {
			return fmt.Errorf("failed to delete raw events: %w", err)
		}
		if _, err := s.repos.LeaveUsages.DeleteByMonth(ctx, filter); err != nil {
			return fmt.Errorf("failed to delete leave usages: %w", err)
		}
		if _, err := s.repos.TimeCorrections.DeleteByMonth(ctx, filter); err != nil {
			return fmt.Errorf("failed to delete time corrections: %w", err)
		}
		if err := s.repos.Events.InsertBatch(ctx, input.Events); err != nil {
			return fmt.Errorf("failed to reinsert raw events: %w", err)
		}
		if err := s.repos.LeaveUsages.InsertBatch(ctx, input.Usages); err != nil {
			return fmt.Errorf("failed to reinsert leave usages: %w", err)
		}
		if err := s.repos.TimeCorrections.InsertBatch(ctx, input.Corrections); err != nil {
			return fmt.Errorf("failed to reinsert time corrections: %w", err)
		}

		res, err := s.recomputer.RecomputeMonth(ctx, input, employeeIDs)
		if err != nil {
			return err
		}
		resp.RawEventCount = len(input.Events)
		resp.LeaveUsageCount = len(input.Usages)
		resp.TimeCorrectionCount = len(input.Corrections)
		resp.DailyFactCount = res.DailyFactCount
		resp.MonthlySummaryCount = res.MonthlySummaryCount
		resp.IssueCount = res.IssueCount
		return nil
	})
	if err != nil {
		s.logger.Error("Snapshot restore failed", "snapshot_id", snap.ID, "error", err)
		return snapshot.RestoreResponse{}, err
	}

	s.logger.Info("Snapshot restored",
		"snapshot_id", snap.ID,
		"yyyymm", ym.String(),
		"raw_event_count", resp.RawEventCount,
		"leave_usage_count", resp.LeaveUsageCount,
		"daily_fact_count", resp.DailyFactCount,
		"duration", time.Since(start))
	return resp, nil
}

// restoreInput decodes every child and unions them into one month input.
func restoreInput(snap snapshot.Snapshot) (attendance.MonthInput, error) {
	ym := snap.YearMonth()
	input := attendance.MonthInput{Month: ym}

	leaveTypes := make(map[string]leave.LeaveType)
	overrides := make(map[string]bool)
	holidays := make(map[string]bool)
	seenEvents := make(map[string]bool)
	seenUsages := make(map[string]bool)
	seenCorrections := make(map[string]bool)

	for _, child := range snap.Children {
		if err := child.Verify(); err != nil {
			return input, fmt.Errorf("child %s: %w", child.ID, err)
		}
		p, err := snapshot.DecodePayload(child.Payload)
		if err != nil {
			return input, fmt.Errorf("child %s: %w", child.ID, err)
		}
		if p.Month != ym {
			return input, fmt.Errorf("child %s: %w: payload month %s does not match snapshot month %s",
				child.ID, snapshot.ErrSnapshotPayloadMalformed, p.Month, ym)
		}
		if p.Employee.ID != child.EmployeeID {
			return input, fmt.Errorf("child %s: %w: payload employee does not match child", child.ID, snapshot.ErrSnapshotPayloadMalformed)
		}

		if !p.Unassigned {
			input.Employees = append(input.Employees, p.Employee)
		}
		for _, ev := range p.Events {
			if !seenEvents[ev.ID] {
				seenEvents[ev.ID] = true
				input.Events = append(input.Events, ev)
			}
		}
		for _, u := range p.LeaveUsages {
			if !seenUsages[u.ID] {
				seenUsages[u.ID] = true
				input.Usages = append(input.Usages, u)
			}
		}
		for _, c := range p.TimeCorrections {
			if !seenCorrections[c.ID] {
				seenCorrections[c.ID] = true
				input.Corrections = append(input.Corrections, c)
			}
		}
		for _, lt := range p.LeaveTypes {
			leaveTypes[lt.ID] = lt
		}
		for _, o := range p.Overrides {
			if key := calendar.DateKey(o.Date); !overrides[key] {
				overrides[key] = true
				input.Calendar.Overrides = append(input.Calendar.Overrides, o)
			}
		}
		for _, h := range p.Holidays {
			if key := calendar.DateKey(h.Date); !holidays[key] {
				holidays[key] = true
				input.Calendar.Holidays = append(input.Calendar.Holidays, h)
			}
		}
	}

	for _, id := range sortedKeys(toBoolSet(leaveTypes)) {
		input.LeaveTypes = append(input.LeaveTypes, leaveTypes[id])
	}
	return input, nil
}

// List implements snapshot.Service.
func (s *SnapshotServiceImpl) List(ctx context.Context, filter snapshot.ListFilter) ([]snapshot.Snapshot, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	snaps, err := s.repos.Snapshots.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// Get implements snapshot.Service.
func (s *SnapshotServiceImpl) Get(ctx context.Context, id string) (snapshot.Snapshot, error) {
	return s.repos.Snapshots.GetByID(ctx, id)
}

func toBoolSet[V any](m map[string]V) map[string]bool {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(ids []string) []string {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return sortedKeys(set)
}
