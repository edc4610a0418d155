package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOCK_BACKEND", "local")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "09:00:00", cfg.WorkTime.WorkStart.String())
	assert.Equal(t, "18:00:00", cfg.WorkTime.WorkEnd.String())
	assert.Equal(t, 480, cfg.WorkTime.WorkableMinutesPerDay)
	assert.Equal(t, 500, cfg.Batch.Size)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "0 2 * * *", cfg.Cron.DailySpec)
	assert.Equal(t, 30*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, "Asia/Jakarta", cfg.App.Location.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("WORK_START_TIME", "08:30")
	t.Setenv("WORKERS", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "08:30:00", cfg.WorkTime.WorkStart.String())
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without password": {"STORAGE_TYPE": "postgres", "JWT_SECRET_KEY": "s", "DB_PASSWORD": ""},
		"advisory lock on memory":   {"STORAGE_TYPE": "memory", "LOCK_BACKEND": "postgres", "JWT_SECRET_KEY": "s"},
		"unknown storage":           {"STORAGE_TYPE": "sqlite", "JWT_SECRET_KEY": "s"},
		"missing jwt secret":        {"STORAGE_TYPE": "memory", "LOCK_BACKEND": "local", "JWT_SECRET_KEY": ""},
		"inverted work window":      {"STORAGE_TYPE": "memory", "LOCK_BACKEND": "local", "JWT_SECRET_KEY": "s", "WORK_START_TIME": "19:00"},
		"bad workers":               {"STORAGE_TYPE": "memory", "LOCK_BACKEND": "local", "JWT_SECRET_KEY": "s", "WORKERS": "many"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
