package issue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
)

var _ issue.Service = (*IssueServiceImpl)(nil)

type IssueServiceImpl struct {
	repos     repository.Registry
	locker    lock.Locker
	corrector attendance.Corrector
	now       func() time.Time
	logger    *slog.Logger
}

func NewIssueService(repos repository.Registry, locker lock.Locker, corrector attendance.Corrector, now func() time.Time, logger *slog.Logger) *IssueServiceImpl {
	return &IssueServiceImpl{
		repos:     repos,
		locker:    locker,
		corrector: corrector,
		now:       now,
		logger:    logger,
	}
}

// mutate loads the issue under its month's lock and persists whatever fn leaves in it.
func (s *IssueServiceImpl) mutate(ctx context.Context, id string, fn func(ctx context.Context, iss *issue.Issue) error) (issue.Issue, error) {
	current, err := s.repos.Issues.GetByID(ctx, id)
	if err != nil {
		return issue.Issue{}, err
	}

	var result issue.Issue
	key := attendance.ScopeLockKey(calendar.YearMonthOf(current.Date))
	err = lock.WithLock(ctx, s.locker, key, func(ctx context.Context) error {
		return s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			iss, err := s.repos.Issues.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if err := fn(ctx, &iss); err != nil {
				return err
			}
			iss.UpdatedAt = s.now()
			if err := s.repos.Issues.Update(ctx, iss); err != nil {
				return fmt.Errorf("failed to update issue: %w", err)
			}
			result = iss
			return nil
		})
	})
	if err != nil {
		return issue.Issue{}, err
	}
	return result, nil
}

// SetDescription implements issue.Service.
func (s *IssueServiceImpl) SetDescription(ctx context.Context, req issue.SetDescriptionRequest) (issue.Issue, error) {
	if err := req.Validate(); err != nil {
		return issue.Issue{}, err
	}
	return s.mutate(ctx, req.ID, func(ctx context.Context, iss *issue.Issue) error {
		if !iss.EditableBy(req.PerformedBy, req.IsAdmin) {
			return issue.ErrIssueForbidden
		}
		next, err := iss.Status.Transition(issue.StatusNotApplied)
		if err != nil {
			return err
		}
		iss.Status = next
		iss.Description = &req.Description
		return nil
	})
}

// SetCorrection implements issue.Service.
func (s *IssueServiceImpl) SetCorrection(ctx context.Context, req issue.SetCorrectionRequest) (issue.Issue, error) {
	if err := req.Validate(); err != nil {
		return issue.Issue{}, err
	}
	return s.mutate(ctx, req.ID, func(ctx context.Context, iss *issue.Issue) error {
		if !iss.EditableBy(req.PerformedBy, req.IsAdmin) {
			return issue.ErrIssueForbidden
		}
		next, err := iss.Status.Transition(issue.StatusNotApplied)
		if err != nil {
			return err
		}

		if len(req.CorrectedLeaveTypeIDs) > 0 {
			found, err := s.repos.LeaveTypes.GetByIDs(ctx, req.CorrectedLeaveTypeIDs)
			if err != nil {
				return fmt.Errorf("failed to get leave types: %w", err)
			}
			if len(found) != len(req.CorrectedLeaveTypeIDs) {
				return leave.ErrLeaveTypeNotFound
			}
		}

		iss.Status = next
		iss.CorrectedEnter = req.ParsedEnter
		iss.CorrectedLeave = req.ParsedLeave
		iss.CorrectedLeaveTypeIDs = req.CorrectedLeaveTypeIDs
		return nil
	})
}

// Apply implements issue.Service. The correction is pushed into the daily fact
// in the same transaction that marks the issue applied.
func (s *IssueServiceImpl) Apply(ctx context.Context, req issue.ApplyRequest) (issue.Issue, error) {
	if err := req.Validate(); err != nil {
		return issue.Issue{}, err
	}
	applied, err := s.mutate(ctx, req.ID, func(ctx context.Context, iss *issue.Issue) error {
		if iss.Status == issue.StatusApplied {
			return issue.ErrIssueAlreadyApplied
		}
		if !iss.HasCorrection() {
			var errs validator.ValidationErrors
			return errs.Add("correction", "a correction must be set before applying").Err()
		}
		next, err := iss.Status.Transition(issue.StatusApplied)
		if err != nil {
			return err
		}

		if _, err := s.corrector.ApplyCorrection(ctx, iss.CorrectionRequest(req.PerformedBy)); err != nil {
			return fmt.Errorf("failed to apply correction to daily fact: %w", err)
		}

		now := s.now()
		iss.Status = next
		iss.ConfirmedBy = &req.PerformedBy
		iss.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return issue.Issue{}, err
	}

	s.logger.Info("Attendance issue applied", "issue_id", applied.ID, "daily_fact_id", applied.DailyFactID, "performed_by", req.PerformedBy)
	return applied, nil
}

// Reject implements issue.Service.
func (s *IssueServiceImpl) Reject(ctx context.Context, req issue.RejectRequest) (issue.Issue, error) {
	if err := req.Validate(); err != nil {
		return issue.Issue{}, err
	}
	return s.mutate(ctx, req.ID, func(ctx context.Context, iss *issue.Issue) error {
		next, err := iss.Status.Transition(issue.StatusRejected)
		if err != nil {
			return err
		}
		iss.Status = next
		iss.RejectionReason = &req.Reason
		return nil
	})
}

// ReRequest implements issue.Service.
func (s *IssueServiceImpl) ReRequest(ctx context.Context, req issue.ReRequestRequest) (issue.Issue, error) {
	if err := req.Validate(); err != nil {
		return issue.Issue{}, err
	}
	return s.mutate(ctx, req.ID, func(ctx context.Context, iss *issue.Issue) error {
		if !iss.EditableBy(req.PerformedBy, req.IsAdmin) {
			return issue.ErrIssueForbidden
		}
		next, err := iss.Status.Transition(issue.StatusRequest)
		if err != nil {
			return err
		}
		iss.Status = next
		return nil
	})
}

// List implements issue.Service.
func (s *IssueServiceImpl) List(ctx context.Context, filter issue.Filter) ([]issue.Issue, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	issues, err := s.repos.Issues.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, nil
}

// Get implements issue.Service.
func (s *IssueServiceImpl) Get(ctx context.Context, id string) (issue.Issue, error) {
	return s.repos.Issues.GetByID(ctx, id)
}
