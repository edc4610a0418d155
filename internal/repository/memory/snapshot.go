package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type snapshotRepo struct{ s *Store }

func sameScope(a, b snapshot.Scope) bool {
	if a.Type != b.Type {
		return false
	}
	if a.DepartmentID == nil || b.DepartmentID == nil {
		return a.DepartmentID == nil && b.DepartmentID == nil
	}
	return *a.DepartmentID == *b.DepartmentID
}

func (r *snapshotRepo) Create(ctx context.Context, snap snapshot.Snapshot) (snapshot.Snapshot, error) {
	err := r.s.view(ctx, func(d *state) error {
		d.snapshots[snap.ID] = snap
		return nil
	})
	return snap, err
}

func (r *snapshotRepo) CountByScopeMonth(ctx context.Context, scope snapshot.Scope, ym calendar.YearMonth) (int, error) {
	n := 0
	err := r.s.view(ctx, func(d *state) error {
		for _, snap := range d.snapshots {
			if sameScope(snap.Scope, scope) && snap.YearMonth() == ym {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *snapshotRepo) GetByID(ctx context.Context, id string) (snapshot.Snapshot, error) {
	var out snapshot.Snapshot
	err := r.s.view(ctx, func(d *state) error {
		snap, ok := d.snapshots[id]
		if !ok {
			return snapshot.ErrSnapshotNotFound
		}
		out = snap
		return nil
	})
	return out, err
}

func (r *snapshotRepo) List(ctx context.Context, filter snapshot.ListFilter) ([]snapshot.Snapshot, error) {
	var out []snapshot.Snapshot
	err := r.s.view(ctx, func(d *state) error {
		for _, snap := range d.snapshots {
			if snap.Year != filter.Year || snap.Month != filter.Month {
				continue
			}
			if filter.Scope != nil && string(snap.Scope.Type) != *filter.Scope {
				continue
			}
			snap.Children = nil
			out = append(out, snap)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Version > out[j].Version
	})
	return out, err
}
