package postgresql

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
)

// NewRegistry wires every PostgreSQL repository onto db.
func NewRegistry(db *database.DB) repository.Registry {
	return repository.Registry{
		Transactor:       NewTransactor(db),
		Directory:        NewEmployeeDirectory(db),
		LeaveTypes:       NewLeaveTypeRepository(db),
		Events:           NewEventRepository(db),
		LeaveUsages:      NewLeaveUsageRepository(db),
		TimeCorrections:  NewTimeCorrectionRepository(db),
		Overrides:        NewOverrideRepository(db),
		Holidays:         NewHolidayRepository(db),
		DailyFacts:       NewDailyFactRepository(db),
		MonthlySummaries: NewMonthlySummaryRepository(db),
		Issues:           NewIssueRepository(db),
		Snapshots:        NewSnapshotRepository(db),
	}
}
