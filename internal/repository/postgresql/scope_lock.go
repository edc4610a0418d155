package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
)

// AdvisoryLocker serializes scopes with session-level advisory locks. The
// connection is held until release because the lock belongs to the session.
type AdvisoryLocker struct {
	db *database.DB
}

func NewAdvisoryLocker(db *database.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// Acquire implements lock.Locker.
func (l *AdvisoryLocker) Acquire(ctx context.Context, key string) (lock.ReleaseFunc, error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for scope lock %s: %w", key, err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire scope lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, lock.ErrScopeLocked
	}

	return func(ctx context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("release scope lock %s: %w", key, err)
		}
		return nil
	}, nil
}
