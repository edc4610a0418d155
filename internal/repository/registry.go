package repository

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

// Registry bundles one storage backend's repositories with its transactor.
type Registry struct {
	Transactor database.Transactor

	Directory        employee.Directory
	LeaveTypes       leave.LeaveTypeRepository
	Events           rawdata.EventRepository
	LeaveUsages      rawdata.LeaveUsageRepository
	TimeCorrections  rawdata.TimeCorrectionRepository
	Overrides        worktime.OverrideRepository
	Holidays         worktime.HolidayRepository
	DailyFacts       attendance.DailyFactRepository
	MonthlySummaries attendance.MonthlySummaryRepository
	Issues           issue.IssueRepository
	Snapshots        snapshot.SnapshotRepository
}
