package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Acquire(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "attendance:202403")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "attendance:202403")
	assert.ErrorIs(t, err, ErrScopeLocked)

	// other scopes are independent
	releaseOther, err := l.Acquire(ctx, "attendance:202404")
	require.NoError(t, err)
	require.NoError(t, releaseOther(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	release, err = l.Acquire(ctx, "attendance:202403")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRedis_Acquire(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	l := NewRedis(client, "lock:", time.Minute)
	l.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("lock:attendance:202403", "token-1", time.Minute).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"lock:attendance:202403"}, "token-1").SetVal(int64(1))

	release, err := l.Acquire(ctx, "attendance:202403")
	require.NoError(t, err)
	require.NoError(t, release(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_AcquireHeld(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	l := NewRedis(client, "lock:", time.Minute)
	l.newToken = func() string { return "token-2" }

	mock.ExpectSetNX("lock:attendance:202403", "token-2", time.Minute).SetVal(false)

	_, err := l.Acquire(ctx, "attendance:202403")
	assert.ErrorIs(t, err, ErrScopeLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_AcquireError(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	l := NewRedis(client, "lock:", time.Minute)
	l.newToken = func() string { return "token-3" }

	mock.ExpectSetNX("lock:attendance:202403", "token-3", time.Minute).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(ctx, "attendance:202403")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrScopeLocked)
}
