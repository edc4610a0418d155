// Package memory is a transactional in-memory implementation of every
// repository, used for development and tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
)

type state struct {
	employees  map[string]employee.Employee
	leaveTypes map[string]leave.LeaveType
	events     map[string]rawdata.Event
	usages     map[string]rawdata.LeaveUsage
	timeFixes  map[string]rawdata.TimeCorrection // employee|date
	overrides  map[string]worktime.Override      // by date
	holidays   map[string]worktime.Holiday       // by date
	facts      map[string]attendance.DailyFact
	factByDay  map[string]string // employee|date -> fact id, tombstones included
	summaries  map[string]attendance.MonthlySummary
	summaryKey map[string]string // employee|yyyymm -> summary id, tombstones included
	issues     map[string]issue.Issue
	snapshots  map[string]snapshot.Snapshot
}

func newState() state {
	return state{
		employees:  make(map[string]employee.Employee),
		leaveTypes: make(map[string]leave.LeaveType),
		events:     make(map[string]rawdata.Event),
		usages:     make(map[string]rawdata.LeaveUsage),
		timeFixes:  make(map[string]rawdata.TimeCorrection),
		overrides:  make(map[string]worktime.Override),
		holidays:   make(map[string]worktime.Holiday),
		facts:      make(map[string]attendance.DailyFact),
		factByDay:  make(map[string]string),
		summaries:  make(map[string]attendance.MonthlySummary),
		summaryKey: make(map[string]string),
		issues:     make(map[string]issue.Issue),
		snapshots:  make(map[string]snapshot.Snapshot),
	}
}

// clone copies every table. Records are replaced, never mutated in place, so
// copying the maps is enough for rollback.
func (s state) clone() state {
	return state{
		employees:  maps.Clone(s.employees),
		leaveTypes: maps.Clone(s.leaveTypes),
		events:     maps.Clone(s.events),
		usages:     maps.Clone(s.usages),
		timeFixes:  maps.Clone(s.timeFixes),
		overrides:  maps.Clone(s.overrides),
		holidays:   maps.Clone(s.holidays),
		facts:      maps.Clone(s.facts),
		factByDay:  maps.Clone(s.factByDay),
		summaries:  maps.Clone(s.summaries),
		summaryKey: maps.Clone(s.summaryKey),
		issues:     maps.Clone(s.issues),
		snapshots:  maps.Clone(s.snapshots),
	}
}

// Store holds all tables behind one mutex. A transaction holds the mutex for
// its whole duration; nested transactions roll back to their own savepoint.
type Store struct {
	mu   sync.Mutex
	data state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, s)
	}

	savepoint := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = savepoint
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		s.data = savepoint
		return err
	}
	return nil
}

// view runs fn against the live tables, taking the mutex unless ctx is
// already inside one of this store's transactions.
func (s *Store) view(ctx context.Context, fn func(d *state) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(&s.data)
}

// Registry exposes the store through the repository interfaces.
func (s *Store) Registry() repository.Registry {
	return repository.Registry{
		Transactor:       s,
		Directory:        &directory{s},
		LeaveTypes:       &leaveTypeRepo{s},
		Events:           &eventRepo{s},
		LeaveUsages:      &leaveUsageRepo{s},
		TimeCorrections:  &timeCorrectionRepo{s},
		Overrides:        &overrideRepo{s},
		Holidays:         &holidayRepo{s},
		DailyFacts:       &dailyFactRepo{s},
		MonthlySummaries: &monthlySummaryRepo{s},
		Issues:           &issueRepo{s},
		Snapshots:        &snapshotRepo{s},
	}
}

// PutEmployees seeds the directory.
func (s *Store) PutEmployees(emps ...employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range emps {
		s.data.employees[e.ID] = e
	}
}

// PutLeaveTypes seeds the leave type reference data.
func (s *Store) PutLeaveTypes(types ...leave.LeaveType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lt := range types {
		s.data.leaveTypes[lt.ID] = lt
	}
}
