package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type overrideRepo struct{ s *Store }

func (r *overrideRepo) ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]worktime.Override, error) {
	var out []worktime.Override
	err := r.s.view(ctx, func(d *state) error {
		for _, o := range d.overrides {
			if ym.Contains(o.Date) {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

func (r *overrideRepo) Upsert(ctx context.Context, o worktime.Override) (worktime.Override, error) {
	err := r.s.view(ctx, func(d *state) error {
		key := calendar.DateKey(o.Date)
		if existing, ok := d.overrides[key]; ok {
			o.ID = existing.ID
			o.CreatedAt = existing.CreatedAt
		}
		d.overrides[key] = o
		return nil
	})
	return o, err
}

func (r *overrideRepo) DeleteByDate(ctx context.Context, date time.Time) error {
	return r.s.view(ctx, func(d *state) error {
		key := calendar.DateKey(date)
		if _, ok := d.overrides[key]; !ok {
			return worktime.ErrOverrideNotFound
		}
		delete(d.overrides, key)
		return nil
	})
}

type holidayRepo struct{ s *Store }

func (r *holidayRepo) ListByMonth(ctx context.Context, ym calendar.YearMonth) ([]worktime.Holiday, error) {
	var out []worktime.Holiday
	err := r.s.view(ctx, func(d *state) error {
		for _, h := range d.holidays {
			if ym.Contains(h.Date) {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

func (r *holidayRepo) Create(ctx context.Context, h worktime.Holiday) (worktime.Holiday, error) {
	err := r.s.view(ctx, func(d *state) error {
		key := calendar.DateKey(h.Date)
		if _, ok := d.holidays[key]; ok {
			return worktime.ErrHolidayExists
		}
		d.holidays[key] = h
		return nil
	})
	return h, err
}
