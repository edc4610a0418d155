package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
)

type issueRepo struct{ s *Store }

func (r *issueRepo) Create(ctx context.Context, iss issue.Issue) (issue.Issue, error) {
	err := r.s.view(ctx, func(d *state) error {
		for _, other := range d.issues {
			if other.DeletedAt == nil && other.DailyFactID == iss.DailyFactID {
				return issue.ErrIssueAlreadyExists
			}
		}
		d.issues[iss.ID] = iss
		return nil
	})
	return iss, err
}

func (r *issueRepo) ExistsForDailyFacts(ctx context.Context, factIDs []string) (map[string]bool, error) {
	want := make(map[string]bool, len(factIDs))
	for _, id := range factIDs {
		want[id] = true
	}
	out := make(map[string]bool)
	err := r.s.view(ctx, func(d *state) error {
		for _, iss := range d.issues {
			if iss.DeletedAt == nil && want[iss.DailyFactID] {
				out[iss.DailyFactID] = true
			}
		}
		return nil
	})
	return out, err
}

func (r *issueRepo) GetByID(ctx context.Context, id string) (issue.Issue, error) {
	var out issue.Issue
	err := r.s.view(ctx, func(d *state) error {
		iss, ok := d.issues[id]
		if !ok || iss.DeletedAt != nil {
			return issue.ErrIssueNotFound
		}
		out = iss
		return nil
	})
	return out, err
}

func (r *issueRepo) Update(ctx context.Context, iss issue.Issue) error {
	return r.s.view(ctx, func(d *state) error {
		if _, ok := d.issues[iss.ID]; !ok {
			return issue.ErrIssueNotFound
		}
		d.issues[iss.ID] = iss
		return nil
	})
}

func (r *issueRepo) List(ctx context.Context, filter issue.Filter) ([]issue.Issue, error) {
	ym := filter.YearMonth()
	var out []issue.Issue
	err := r.s.view(ctx, func(d *state) error {
		for _, iss := range d.issues {
			if iss.DeletedAt != nil || !ym.Contains(iss.Date) {
				continue
			}
			if filter.Status != nil && iss.Status != *filter.Status {
				continue
			}
			if filter.EmployeeID != nil && iss.EmployeeID != *filter.EmployeeID {
				continue
			}
			out = append(out, iss)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, err
}
