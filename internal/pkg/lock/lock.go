package lock

import (
	"context"
	"errors"
)

// ErrScopeLocked is returned when another run already holds the scope.
var ErrScopeLocked = errors.New("another run is in progress for this scope")

// ReleaseFunc gives the scope back. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

// Locker serializes runs that target the same scope key. Acquire does not wait:
// it returns ErrScopeLocked when the key is taken.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// WithLock runs fn while holding key. The lock is released even when fn fails.
func WithLock(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) (err error) {
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(ctx)
}
