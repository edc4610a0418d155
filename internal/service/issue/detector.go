package issue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

var _ issue.Detector = (*DetectorImpl)(nil)

// DetectorImpl creates issues employee by employee, each in its own nested
// transaction, so one employee's failure rolls back only that employee.
type DetectorImpl struct {
	issues issue.IssueRepository
	tx     database.Transactor
	now    func() time.Time
	logger *slog.Logger
}

func NewDetector(issues issue.IssueRepository, tx database.Transactor, now func() time.Time, logger *slog.Logger) *DetectorImpl {
	return &DetectorImpl{
		issues: issues,
		tx:     tx,
		now:    now,
		logger: logger,
	}
}

// Detect implements issue.Detector.
func (d *DetectorImpl) Detect(ctx context.Context, facts []attendance.DailyFact) (int, error) {
	byEmployee := make(map[string][]attendance.DailyFact)
	var factIDs []string
	for _, f := range facts {
		if !f.NeedsReview() {
			continue
		}
		byEmployee[f.EmployeeID] = append(byEmployee[f.EmployeeID], f)
		factIDs = append(factIDs, f.ID)
	}
	if len(factIDs) == 0 {
		return 0, nil
	}

	existing, err := d.issues.ExistsForDailyFacts(ctx, factIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing issues: %w", err)
	}

	employeeIDs := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		employeeIDs = append(employeeIDs, id)
	}
	sort.Strings(employeeIDs)

	created := 0
	for _, employeeID := range employeeIDs {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		var n int
		err := d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			n = 0
			for _, f := range byEmployee[employeeID] {
				if existing[f.ID] {
					continue
				}
				ok, err := d.create(ctx, f)
				if err != nil {
					return err
				}
				if ok {
					n++
				}
			}
			return nil
		})
		if err != nil {
			d.logger.Error("Skipping attendance issues for employee",
				"employee_id", employeeID,
				"error", err)
			continue
		}
		created += n
	}

	d.logger.Info("Attendance issues detected", "candidate_count", len(factIDs), "created_count", created)
	return created, nil
}

func (d *DetectorImpl) create(ctx context.Context, fact attendance.DailyFact) (bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("generate issue id: %w", err)
	}
	_, err = d.issues.Create(ctx, issue.NewFromFact(id.String(), fact, d.now()))
	if errors.Is(err, issue.ErrIssueAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create issue for daily fact %s: %w", fact.ID, err)
	}
	return true, nil
}
