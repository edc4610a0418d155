package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

func dayKeyOf(f attendance.DailyFact) string {
	return f.EmployeeID + "|" + calendar.DateKey(f.Date)
}

func monthKeyOf(employeeID string, ym calendar.YearMonth) string {
	return employeeID + "|" + ym.String()
}

func inEmployees(id string, ids []string) bool {
	if ids == nil {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type dailyFactRepo struct{ s *Store }

func (r *dailyFactRepo) GetByID(ctx context.Context, id string) (attendance.DailyFact, error) {
	var out attendance.DailyFact
	err := r.s.view(ctx, func(d *state) error {
		f, ok := d.facts[id]
		if !ok || f.DeletedAt != nil {
			return attendance.ErrDailyFactNotFound
		}
		out = f
		return nil
	})
	return out, err
}

func (r *dailyFactRepo) ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]attendance.DailyFact, error) {
	var out []attendance.DailyFact
	err := r.s.view(ctx, func(d *state) error {
		for _, f := range d.facts {
			if f.DeletedAt == nil && ym.Contains(f.Date) && inEmployees(f.EmployeeID, employeeIDs) {
				out = append(out, f)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, err
}

func (r *dailyFactRepo) SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(d *state) error {
		for id, f := range d.facts {
			if f.DeletedAt == nil && ym.Contains(f.Date) && inEmployees(f.EmployeeID, employeeIDs) {
				now := time.Now()
				f.DeletedAt = &now
				d.facts[id] = f
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *dailyFactRepo) UpsertBatch(ctx context.Context, facts []attendance.DailyFact) ([]attendance.DailyFact, error) {
	out := make([]attendance.DailyFact, 0, len(facts))
	err := r.s.view(ctx, func(d *state) error {
		for _, f := range facts {
			key := dayKeyOf(f)
			if id, ok := d.factByDay[key]; ok {
				existing := d.facts[id]
				f.ID = existing.ID
				f.CreatedAt = existing.CreatedAt
				f.MonthlySummaryID = existing.MonthlySummaryID
			}
			f.DeletedAt = nil
			d.facts[f.ID] = f
			d.factByDay[key] = f.ID
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

func (r *dailyFactRepo) Update(ctx context.Context, f attendance.DailyFact) error {
	return r.s.view(ctx, func(d *state) error {
		existing, ok := d.facts[f.ID]
		if !ok || existing.DeletedAt != nil {
			return attendance.ErrDailyFactNotFound
		}
		d.facts[f.ID] = f
		return nil
	})
}

func (r *dailyFactRepo) LinkMonthlySummary(ctx context.Context, factIDs []string, summaryID string) error {
	return r.s.view(ctx, func(d *state) error {
		for _, id := range factIDs {
			f, ok := d.facts[id]
			if !ok {
				continue
			}
			sid := summaryID
			f.MonthlySummaryID = &sid
			d.facts[id] = f
		}
		return nil
	})
}

type monthlySummaryRepo struct{ s *Store }

func (r *monthlySummaryRepo) GetByEmployeeMonth(ctx context.Context, employeeID string, ym calendar.YearMonth) (attendance.MonthlySummary, error) {
	var out attendance.MonthlySummary
	err := r.s.view(ctx, func(d *state) error {
		id, ok := d.summaryKey[monthKeyOf(employeeID, ym)]
		if !ok || d.summaries[id].DeletedAt != nil {
			return attendance.ErrMonthlySummaryNotFound
		}
		out = d.summaries[id]
		return nil
	})
	return out, err
}

func (r *monthlySummaryRepo) ListByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) ([]attendance.MonthlySummary, error) {
	var out []attendance.MonthlySummary
	err := r.s.view(ctx, func(d *state) error {
		for _, sm := range d.summaries {
			if sm.DeletedAt == nil && sm.YearMonth == ym && inEmployees(sm.EmployeeID, employeeIDs) {
				out = append(out, sm)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, err
}

func (r *monthlySummaryRepo) SoftDeleteByMonth(ctx context.Context, ym calendar.YearMonth, employeeIDs []string) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(d *state) error {
		for id, sm := range d.summaries {
			if sm.DeletedAt == nil && sm.YearMonth == ym && inEmployees(sm.EmployeeID, employeeIDs) {
				now := time.Now()
				sm.DeletedAt = &now
				d.summaries[id] = sm
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *monthlySummaryRepo) Upsert(ctx context.Context, sm attendance.MonthlySummary) (attendance.MonthlySummary, error) {
	err := r.s.view(ctx, func(d *state) error {
		key := monthKeyOf(sm.EmployeeID, sm.YearMonth)
		if id, ok := d.summaryKey[key]; ok {
			sm.ID = id
			sm.CreatedAt = d.summaries[id].CreatedAt
		}
		sm.DeletedAt = nil
		d.summaries[sm.ID] = sm
		d.summaryKey[key] = sm.ID
		return nil
	})
	return sm, err
}
