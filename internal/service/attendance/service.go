package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
	worktimesvc "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Settings worktime.Settings
	// BatchSize bounds each upsert statement; it never splits the transaction.
	BatchSize int
	Workers   int
	Location  *time.Location
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Settings.WorkableMinutesPerDay == 0 {
		o.Settings = worktime.DefaultSettings()
	}
	return o
}

var (
	_ attendance.Service    = (*AttendanceServiceImpl)(nil)
	_ attendance.Corrector  = (*AttendanceServiceImpl)(nil)
	_ attendance.Recomputer = (*AttendanceServiceImpl)(nil)
)

type AttendanceServiceImpl struct {
	repos    repository.Registry
	locker   lock.Locker
	detector issue.Detector
	opts     Options
	logger   *slog.Logger
}

func NewAttendanceService(repos repository.Registry, locker lock.Locker, detector issue.Detector, opts Options, logger *slog.Logger) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		repos:    repos,
		locker:   locker,
		detector: detector,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// inScope serializes on the month and runs fn in one transaction.
func (s *AttendanceServiceImpl) inScope(ctx context.Context, ym calendar.YearMonth, fn func(ctx context.Context) error) error {
	return lock.WithLock(ctx, s.locker, attendance.ScopeLockKey(ym), func(ctx context.Context) error {
		return s.repos.Transactor.WithinTransaction(ctx, fn)
	})
}

func (s *AttendanceServiceImpl) today() time.Time {
	return calendar.DateOnly(s.opts.Now().In(s.opts.Location))
}

// lastComputableDay stops the current month at today.
func (s *AttendanceServiceImpl) lastComputableDay(ym calendar.YearMonth) time.Time {
	last := ym.LastDay()
	if today := s.today(); today.Before(last) {
		return today
	}
	return last
}

func (s *AttendanceServiceImpl) checkStarted(ym calendar.YearMonth) error {
	if ym.FirstDay().After(s.today()) {
		return attendance.ErrFutureMonth
	}
	return nil
}

// GenerateDailySummaries implements attendance.Service.
func (s *AttendanceServiceImpl) GenerateDailySummaries(ctx context.Context, req attendance.GenerateRequest) (attendance.GenerateDailyResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.GenerateDailyResponse{}, err
	}
	ym := req.YearMonth()
	if err := s.checkStarted(ym); err != nil {
		return attendance.GenerateDailyResponse{}, err
	}

	start := time.Now()
	s.logger.Info("Generating daily summaries", "yyyymm", ym.String(), "performed_by", req.PerformedBy)

	var (
		factCount  int
		issueCount int
	)
	err := s.inScope(ctx, ym, func(ctx context.Context) error {
		input, err := LoadMonthInput(ctx, s.repos, ym, nil)
		if err != nil {
			return err
		}
		facts, issues, err := s.recomputeDaily(ctx, input, nil)
		if err != nil {
			return err
		}
		factCount, issueCount = len(facts), issues
		return nil
	})
	if err != nil {
		s.logger.Error("Daily summary generation failed", "yyyymm", ym.String(), "error", err)
		return attendance.GenerateDailyResponse{}, err
	}

	s.logger.Info("Daily summaries generated",
		"yyyymm", ym.String(),
		"daily_fact_count", factCount,
		"issue_count", issueCount,
		"performed_by", req.PerformedBy,
		"duration", time.Since(start))

	return attendance.GenerateDailyResponse{
		Year:           ym.Year,
		Month:          int(ym.Month),
		DailyFactCount: factCount,
		IssueCount:     issueCount,
	}, nil
}

// GenerateMonthlySummaries implements attendance.Service.
func (s *AttendanceServiceImpl) GenerateMonthlySummaries(ctx context.Context, req attendance.GenerateRequest) (attendance.GenerateMonthlyResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.GenerateMonthlyResponse{}, err
	}
	ym := req.YearMonth()
	if err := s.checkStarted(ym); err != nil {
		return attendance.GenerateMonthlyResponse{}, err
	}

	start := time.Now()
	s.logger.Info("Generating monthly summaries", "yyyymm", ym.String(), "performed_by", req.PerformedBy)

	var count int
	err := s.inScope(ctx, ym, func(ctx context.Context) error {
		facts, err := s.repos.DailyFacts.ListByMonth(ctx, ym, nil)
		if err != nil {
			return fmt.Errorf("failed to list daily facts: %w", err)
		}
		employeeIDs := make(map[string]bool)
		for _, f := range facts {
			employeeIDs[f.EmployeeID] = true
		}
		emps, err := s.repos.Directory.GetByIDs(ctx, sortedKeys(employeeIDs))
		if err != nil {
			return fmt.Errorf("failed to get employees: %w", err)
		}
		usages, err := s.repos.LeaveUsages.ListByMonth(ctx, rawdata.Filter{Month: ym})
		if err != nil {
			return fmt.Errorf("failed to list leave usages: %w", err)
		}
		leaveTypes, err := s.repos.LeaveTypes.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list leave types: %w", err)
		}
		cal, err := LoadCalendar(ctx, s.repos, ym)
		if err != nil {
			return err
		}

		count, err = s.recomputeMonthly(ctx, monthlyInput{
			month:      ym,
			employees:  emps,
			facts:      facts,
			usages:     usages,
			leaveTypes: leaveTypes,
			calendar:   cal,
		}, nil)
		return err
	})
	if err != nil {
		s.logger.Error("Monthly summary generation failed", "yyyymm", ym.String(), "error", err)
		return attendance.GenerateMonthlyResponse{}, err
	}

	s.logger.Info("Monthly summaries generated",
		"yyyymm", ym.String(),
		"monthly_summary_count", count,
		"performed_by", req.PerformedBy,
		"duration", time.Since(start))

	return attendance.GenerateMonthlyResponse{
		Year:                ym.Year,
		Month:               int(ym.Month),
		MonthlySummaryCount: count,
	}, nil
}

// RecomputeMonth implements attendance.Recomputer.
func (s *AttendanceServiceImpl) RecomputeMonth(ctx context.Context, input attendance.MonthInput, employeeIDs []string) (attendance.RecomputeResult, error) {
	facts, issues, err := s.recomputeDaily(ctx, input, employeeIDs)
	if err != nil {
		return attendance.RecomputeResult{}, err
	}

	only := toSet(employeeIDs)
	var usages []rawdata.LeaveUsage
	for _, u := range input.Usages {
		if only == nil || only[u.EmployeeID] {
			usages = append(usages, u)
		}
	}

	summaries, err := s.recomputeMonthly(ctx, monthlyInput{
		month:      input.Month,
		employees:  input.Employees,
		facts:      facts,
		usages:     usages,
		leaveTypes: input.LeaveTypes,
		calendar:   input.Calendar,
	}, employeeIDs)
	if err != nil {
		return attendance.RecomputeResult{}, err
	}

	return attendance.RecomputeResult{
		DailyFactCount:      len(facts),
		IssueCount:          issues,
		MonthlySummaryCount: summaries,
	}, nil
}

// recomputeDaily tombstones the month's facts, recalculates every employee-day
// and revives or inserts the results, then raises issues.
func (s *AttendanceServiceImpl) recomputeDaily(ctx context.Context, input attendance.MonthInput, employeeIDs []string) ([]attendance.DailyFact, int, error) {
	n := normalize(input, toSet(employeeIDs), s.logger)

	if _, err := s.repos.DailyFacts.SoftDeleteByMonth(ctx, input.Month, employeeIDs); err != nil {
		return nil, 0, fmt.Errorf("failed to soft delete daily facts: %w", err)
	}

	calc := newCalculator(worktimesvc.NewPolicy(s.opts.Settings, input.Calendar), input.LeaveTypes)
	lastDay := s.lastComputableDay(input.Month)

	perEmployee := make([][]attendance.DailyFact, len(n.employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, emp := range n.employees {
		i, emp := i, emp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perEmployee[i] = calc.calculateMonth(emp, n, lastDay)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("failed to calculate daily facts: %w", err)
	}

	now := s.opts.Now()
	var all []attendance.DailyFact
	for _, facts := range perEmployee {
		for _, f := range facts {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, 0, fmt.Errorf("generate daily fact id: %w", err)
			}
			f.ID = id.String()
			f.CreatedAt = now
			f.UpdatedAt = now
			all = append(all, f)
		}
	}

	stored := make([]attendance.DailyFact, 0, len(all))
	for start := 0; start < len(all); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(all))
		saved, err := s.repos.DailyFacts.UpsertBatch(ctx, all[start:end])
		if err != nil {
			return nil, 0, fmt.Errorf("failed to upsert daily facts: %w", err)
		}
		stored = append(stored, saved...)
	}

	issues, err := s.detector.Detect(ctx, stored)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to detect attendance issues: %w", err)
	}

	return stored, issues, nil
}

type monthlyInput struct {
	month      calendar.YearMonth
	employees  []employee.Employee
	facts      []attendance.DailyFact
	usages     []rawdata.LeaveUsage
	leaveTypes []leave.LeaveType
	calendar   worktime.Calendar
}

// recomputeMonthly tombstones the month's summaries and rebuilds one per
// employee with facts, linking every contributing fact back to it.
func (s *AttendanceServiceImpl) recomputeMonthly(ctx context.Context, in monthlyInput, employeeIDs []string) (int, error) {
	if _, err := s.repos.MonthlySummaries.SoftDeleteByMonth(ctx, in.month, employeeIDs); err != nil {
		return 0, fmt.Errorf("failed to soft delete monthly summaries: %w", err)
	}

	agg := newAggregator(worktimesvc.NewPolicy(s.opts.Settings, in.calendar), in.leaveTypes)

	empByID := make(map[string]employee.Employee, len(in.employees))
	for _, e := range in.employees {
		empByID[e.ID] = e
	}
	factsByEmp := make(map[string][]attendance.DailyFact)
	for _, f := range in.facts {
		factsByEmp[f.EmployeeID] = append(factsByEmp[f.EmployeeID], f)
	}
	usagesByEmp := make(map[string][]rawdata.LeaveUsage)
	for _, u := range in.usages {
		usagesByEmp[u.EmployeeID] = append(usagesByEmp[u.EmployeeID], u)
	}

	ids := make([]string, 0, len(factsByEmp))
	for id := range factsByEmp {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := s.opts.Now()
	for _, id := range ids {
		emp, ok := empByID[id]
		if !ok {
			s.logger.Warn("Employee missing from directory, summarizing without hire dates", "employee_id", id)
			emp = employee.Employee{ID: id}
		}
		facts := factsByEmp[id]
		sort.Slice(facts, func(i, j int) bool { return facts[i].Date.Before(facts[j].Date) })

		summary := agg.aggregate(emp, in.month, facts, usagesByEmp[id])
		summaryID, err := uuid.NewV7()
		if err != nil {
			return 0, fmt.Errorf("generate monthly summary id: %w", err)
		}
		summary.ID = summaryID.String()
		summary.CreatedAt = now
		summary.UpdatedAt = now

		saved, err := s.repos.MonthlySummaries.Upsert(ctx, summary)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert monthly summary for employee %s: %w", id, err)
		}

		factIDs := make([]string, 0, len(facts))
		for _, f := range facts {
			factIDs = append(factIDs, f.ID)
		}
		if err := s.repos.DailyFacts.LinkMonthlySummary(ctx, factIDs, saved.ID); err != nil {
			return 0, fmt.Errorf("failed to link daily facts to monthly summary: %w", err)
		}
	}

	return len(ids), nil
}

// UpdateDailyFact implements attendance.Service.
func (s *AttendanceServiceImpl) UpdateDailyFact(ctx context.Context, req attendance.UpdateDailyFactRequest) (attendance.DailyFact, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyFact{}, err
	}

	fact, err := s.repos.DailyFacts.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.DailyFact{}, err
	}

	var updated attendance.DailyFact
	err = s.inScope(ctx, calendar.YearMonthOf(fact.Date), func(ctx context.Context) error {
		updated, err = s.ApplyCorrection(ctx, req)
		return err
	})
	if err != nil {
		return attendance.DailyFact{}, err
	}
	return updated, nil
}

// ApplyCorrection implements attendance.Corrector.
func (s *AttendanceServiceImpl) ApplyCorrection(ctx context.Context, req attendance.UpdateDailyFactRequest) (attendance.DailyFact, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyFact{}, err
	}

	fact, err := s.repos.DailyFacts.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.DailyFact{}, err
	}
	ym := calendar.YearMonthOf(fact.Date)

	emps, err := s.repos.Directory.GetByIDs(ctx, []string{fact.EmployeeID})
	if err != nil {
		return attendance.DailyFact{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if len(emps) == 0 {
		return attendance.DailyFact{}, employee.ErrEmployeeNotFound
	}
	emp := emps[0]

	cal, err := LoadCalendar(ctx, s.repos, ym)
	if err != nil {
		return attendance.DailyFact{}, err
	}
	leaveTypes, err := s.repos.LeaveTypes.ListAll(ctx)
	if err != nil {
		return attendance.DailyFact{}, fmt.Errorf("failed to list leave types: %w", err)
	}

	in := dayInput{realEnter: fact.RealEnter, realLeave: fact.RealLeave}
	if req.IsTimeEdit() {
		if req.ParsedEnter != nil {
			in.realEnter = req.ParsedEnter
		}
		if req.ParsedLeave != nil {
			in.realLeave = req.ParsedLeave
		}
		if in.realEnter != nil && in.realLeave != nil && in.realLeave.Before(*in.realEnter) {
			return attendance.DailyFact{}, validationError("leave", "leave must not be before enter")
		}
		if err := s.storeTimeCorrection(ctx, emp.ID, fact.Date, req); err != nil {
			return attendance.DailyFact{}, err
		}

		usages, err := s.repos.LeaveUsages.ListByMonth(ctx, rawdata.Filter{Month: ym, EmployeeIDs: []string{emp.ID}})
		if err != nil {
			return attendance.DailyFact{}, fmt.Errorf("failed to list leave usages: %w", err)
		}
		for _, u := range usages {
			if calendar.DateKey(u.Date) == calendar.DateKey(fact.Date) {
				in.usages = append(in.usages, u)
			}
		}
	} else {
		found, err := s.repos.LeaveTypes.GetByIDs(ctx, req.LeaveTypeIDs)
		if err != nil {
			return attendance.DailyFact{}, fmt.Errorf("failed to get leave types: %w", err)
		}
		if len(found) != len(req.LeaveTypeIDs) {
			return attendance.DailyFact{}, leave.ErrLeaveTypeNotFound
		}

		now := s.opts.Now()
		for _, ltID := range req.LeaveTypeIDs {
			id, err := uuid.NewV7()
			if err != nil {
				return attendance.DailyFact{}, fmt.Errorf("generate leave usage id: %w", err)
			}
			in.usages = append(in.usages, rawdata.LeaveUsage{
				ID:          id.String(),
				EmployeeID:  emp.ID,
				Date:        fact.Date,
				LeaveTypeID: ltID,
				CreatedAt:   now,
			})
		}
		if err := s.repos.LeaveUsages.ReplaceForDay(ctx, emp.ID, fact.Date, in.usages); err != nil {
			return attendance.DailyFact{}, fmt.Errorf("failed to replace leave usages: %w", err)
		}
	}
	sortUsages(in.usages)

	calc := newCalculator(worktimesvc.NewPolicy(s.opts.Settings, cal), leaveTypes)
	updated := calc.calculateDay(emp, fact.Date, in)
	updated.ID = fact.ID
	updated.MonthlySummaryID = fact.MonthlySummaryID
	updated.CreatedAt = fact.CreatedAt
	updated.UpdatedAt = s.opts.Now()
	updated.Note = joinNote(updated.Note, fmt.Sprintf("manual update: %s (by %s)", req.Reason, req.PerformedBy))

	if err := s.repos.DailyFacts.Update(ctx, updated); err != nil {
		return attendance.DailyFact{}, fmt.Errorf("failed to update daily fact: %w", err)
	}

	s.logger.Info("Daily fact corrected",
		"daily_fact_id", updated.ID,
		"employee_id", emp.ID,
		"date", calendar.DateKey(updated.Date),
		"time_edit", req.IsTimeEdit(),
		"performed_by", req.PerformedBy)

	// keep an existing monthly summary consistent with its facts
	if _, err := s.repos.MonthlySummaries.GetByEmployeeMonth(ctx, emp.ID, ym); err == nil {
		if err := s.refreshMonthly(ctx, emp, ym, leaveTypes, cal); err != nil {
			return attendance.DailyFact{}, err
		}
	} else if !errors.Is(err, attendance.ErrMonthlySummaryNotFound) {
		return attendance.DailyFact{}, fmt.Errorf("failed to get monthly summary: %w", err)
	}

	return s.repos.DailyFacts.GetByID(ctx, updated.ID)
}

func (s *AttendanceServiceImpl) refreshMonthly(ctx context.Context, emp employee.Employee, ym calendar.YearMonth, leaveTypes []leave.LeaveType, cal worktime.Calendar) error {
	only := []string{emp.ID}
	facts, err := s.repos.DailyFacts.ListByMonth(ctx, ym, only)
	if err != nil {
		return fmt.Errorf("failed to list daily facts: %w", err)
	}
	usages, err := s.repos.LeaveUsages.ListByMonth(ctx, rawdata.Filter{Month: ym, EmployeeIDs: only})
	if err != nil {
		return fmt.Errorf("failed to list leave usages: %w", err)
	}
	_, err = s.recomputeMonthly(ctx, monthlyInput{
		month:      ym,
		employees:  []employee.Employee{emp},
		facts:      facts,
		usages:     usages,
		leaveTypes: leaveTypes,
		calendar:   cal,
	}, only)
	return err
}

// storeTimeCorrection records the corrected punches where regeneration reads
// them. A side the request leaves unset keeps any earlier correction.
func (s *AttendanceServiceImpl) storeTimeCorrection(ctx context.Context, employeeID string, date time.Time, req attendance.UpdateDailyFactRequest) error {
	existing, err := s.repos.TimeCorrections.ListByMonth(ctx, rawdata.Filter{
		Month:       calendar.YearMonthOf(date),
		EmployeeIDs: []string{employeeID},
	})
	if err != nil {
		return fmt.Errorf("failed to list time corrections: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate time correction id: %w", err)
	}
	now := s.opts.Now()
	c := rawdata.TimeCorrection{
		ID:         id.String(),
		EmployeeID: employeeID,
		Date:       date,
		Enter:      req.ParsedEnter,
		Leave:      req.ParsedLeave,
		Reason:     req.Reason,
		CreatedBy:  req.PerformedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, prev := range existing {
		if calendar.DateKey(prev.Date) != calendar.DateKey(date) {
			continue
		}
		if c.Enter == nil {
			c.Enter = prev.Enter
		}
		if c.Leave == nil {
			c.Leave = prev.Leave
		}
	}

	if _, err := s.repos.TimeCorrections.Upsert(ctx, c); err != nil {
		return fmt.Errorf("failed to store time correction: %w", err)
	}
	return nil
}

// ListDailyFacts implements attendance.Service.
func (s *AttendanceServiceImpl) ListDailyFacts(ctx context.Context, filter attendance.DailyFactFilter) ([]attendance.DailyFact, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var only []string
	if filter.EmployeeID != nil {
		only = []string{*filter.EmployeeID}
	}
	facts, err := s.repos.DailyFacts.ListByMonth(ctx, filter.YearMonth(), only)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily facts: %w", err)
	}
	return facts, nil
}

// GetDailyFact implements attendance.Service.
func (s *AttendanceServiceImpl) GetDailyFact(ctx context.Context, id string) (attendance.DailyFact, error) {
	return s.repos.DailyFacts.GetByID(ctx, id)
}

// ListMonthlySummaries implements attendance.Service.
func (s *AttendanceServiceImpl) ListMonthlySummaries(ctx context.Context, ym calendar.YearMonth) ([]attendance.MonthlySummary, error) {
	summaries, err := s.repos.MonthlySummaries.ListByMonth(ctx, ym, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly summaries: %w", err)
	}
	return summaries, nil
}

// GetMonthlySummary implements attendance.Service.
func (s *AttendanceServiceImpl) GetMonthlySummary(ctx context.Context, employeeID string, ym calendar.YearMonth) (attendance.MonthlySummary, error) {
	return s.repos.MonthlySummaries.GetByEmployeeMonth(ctx, employeeID, ym)
}

func joinNote(note, extra string) string {
	if note == "" {
		return extra
	}
	return note + ", " + extra
}

func validationError(field, message string) error {
	var errs validator.ValidationErrors
	return errs.Add(field, message)
}
