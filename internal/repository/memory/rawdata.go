package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type eventRepo struct{ s *Store }

func eventMatches(ev rawdata.Event, f rawdata.Filter) bool {
	if !f.Month.Contains(ev.Date) {
		return false
	}
	if f.EmployeeNumbers == nil {
		return true
	}
	for _, n := range f.EmployeeNumbers {
		if n == ev.EmployeeNumber {
			return true
		}
	}
	return false
}

func (r *eventRepo) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.Event, error) {
	var out []rawdata.Event
	err := r.s.view(ctx, func(d *state) error {
		for _, ev := range d.events {
			if eventMatches(ev, filter) {
				out = append(out, ev)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].TimeOfDay != out[j].TimeOfDay {
			return out[i].TimeOfDay < out[j].TimeOfDay
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *eventRepo) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(d *state) error {
		for id, ev := range d.events {
			if eventMatches(ev, filter) {
				delete(d.events, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *eventRepo) InsertBatch(ctx context.Context, events []rawdata.Event) error {
	return r.s.view(ctx, func(d *state) error {
		for _, ev := range events {
			d.events[ev.ID] = ev
		}
		return nil
	})
}

type leaveUsageRepo struct{ s *Store }

func usageMatches(u rawdata.LeaveUsage, f rawdata.Filter) bool {
	if !f.Month.Contains(u.Date) {
		return false
	}
	if f.EmployeeIDs == nil {
		return true
	}
	for _, id := range f.EmployeeIDs {
		if id == u.EmployeeID {
			return true
		}
	}
	return false
}

func (r *leaveUsageRepo) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.LeaveUsage, error) {
	var out []rawdata.LeaveUsage
	err := r.s.view(ctx, func(d *state) error {
		for _, u := range d.usages {
			if usageMatches(u, filter) {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LeaveTypeID < out[j].LeaveTypeID
	})
	return out, err
}

func (r *leaveUsageRepo) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(d *state) error {
		for id, u := range d.usages {
			if usageMatches(u, filter) {
				delete(d.usages, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *leaveUsageRepo) InsertBatch(ctx context.Context, usages []rawdata.LeaveUsage) error {
	return r.s.view(ctx, func(d *state) error {
		for _, u := range usages {
			if err := checkUniqueUsage(d, u); err != nil {
				return err
			}
			d.usages[u.ID] = u
		}
		return nil
	})
}

func (r *leaveUsageRepo) ReplaceForDay(ctx context.Context, employeeID string, date time.Time, usages []rawdata.LeaveUsage) error {
	day := calendar.DateKey(date)
	return r.s.view(ctx, func(d *state) error {
		for id, u := range d.usages {
			if u.EmployeeID == employeeID && calendar.DateKey(u.Date) == day {
				delete(d.usages, id)
			}
		}
		for _, u := range usages {
			if err := checkUniqueUsage(d, u); err != nil {
				return err
			}
			d.usages[u.ID] = u
		}
		return nil
	})
}

func checkUniqueUsage(d *state, u rawdata.LeaveUsage) error {
	for id, other := range d.usages {
		if id != u.ID && other.EmployeeID == u.EmployeeID && other.LeaveTypeID == u.LeaveTypeID &&
			calendar.DateKey(other.Date) == calendar.DateKey(u.Date) {
			return rawdata.ErrDuplicateLeaveUsage
		}
	}
	return nil
}

type timeCorrectionRepo struct{ s *Store }

func correctionKey(employeeID string, date time.Time) string {
	return employeeID + "|" + calendar.DateKey(date)
}

func correctionMatches(c rawdata.TimeCorrection, f rawdata.Filter) bool {
	return usageMatches(rawdata.LeaveUsage{EmployeeID: c.EmployeeID, Date: c.Date}, f)
}

func (r *timeCorrectionRepo) ListByMonth(ctx context.Context, filter rawdata.Filter) ([]rawdata.TimeCorrection, error) {
	var out []rawdata.TimeCorrection
	err := r.s.view(ctx, func(d *state) error {
		for _, c := range d.timeFixes {
			if correctionMatches(c, filter) {
				out = append(out, c)
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

func (r *timeCorrectionRepo) Upsert(ctx context.Context, c rawdata.TimeCorrection) (rawdata.TimeCorrection, error) {
	err := r.s.view(ctx, func(d *state) error {
		key := correctionKey(c.EmployeeID, c.Date)
		if existing, ok := d.timeFixes[key]; ok {
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
		}
		d.timeFixes[key] = c
		return nil
	})
	return c, err
}

func (r *timeCorrectionRepo) DeleteByMonth(ctx context.Context, filter rawdata.Filter) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(d *state) error {
		for key, c := range d.timeFixes {
			if correctionMatches(c, filter) {
				delete(d.timeFixes, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *timeCorrectionRepo) InsertBatch(ctx context.Context, corrections []rawdata.TimeCorrection) error {
	return r.s.view(ctx, func(d *state) error {
		for _, c := range corrections {
			d.timeFixes[correctionKey(c.EmployeeID, c.Date)] = c
		}
		return nil
	})
}
