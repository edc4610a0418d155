// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	issueService "github.com/cmlabs-hris/attendance-engine/internal/service/issue"
	snapshotService "github.com/cmlabs-hris/attendance-engine/internal/service/snapshot"
	workTimeService "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "attendance-engine:lock:"

type App struct {
	Config *config.Config
	Logger *slog.Logger
	Repos  repository.Registry
	Locker lock.Locker

	Attendance *attendanceService.AttendanceServiceImpl
	Issues     *issueService.IssueServiceImpl
	Snapshots  *snapshotService.SnapshotServiceImpl
	WorkTime   worktime.Service

	closers []func()
}

// NewLogger returns a JSON logger using the ECS attribute names httplog emits.
func NewLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var db *database.DB
	switch cfg.App.StorageType {
	case config.StoragePostgres:
		var err error
		db, err = database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Repos = postgresql.NewRegistry(db)
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		a.Repos = memory.NewStore().Registry()
	}

	switch cfg.Lock.Backend {
	case config.LockPostgres:
		a.Locker = postgresql.NewAdvisoryLocker(db)
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.Locker = lock.NewRedis(client, redisLockPrefix, cfg.Lock.TTL)
	case config.LockLocal:
		a.Locker = lock.NewLocal()
	}

	now := time.Now
	detector := issueService.NewDetector(a.Repos.Issues, a.Repos.Transactor, now, logger)
	a.Attendance = attendanceService.NewAttendanceService(a.Repos, a.Locker, detector, attendanceService.Options{
		Settings:  cfg.WorkTime,
		BatchSize: cfg.Batch.Size,
		Workers:   cfg.Batch.Workers,
		Location:  cfg.App.Location,
		Now:       now,
	}, logger)
	a.Issues = issueService.NewIssueService(a.Repos, a.Locker, a.Attendance, now, logger)
	a.Snapshots = snapshotService.NewSnapshotService(a.Repos, a.Locker, a.Attendance, now, logger)
	a.WorkTime = workTimeService.NewWorkTimeService(a.Repos.Overrides, a.Repos.Holidays, now, logger)

	logger.Info("Attendance engine ready",
		"storage", cfg.App.StorageType,
		"lock", cfg.Lock.Backend,
		"workers", cfg.Batch.Workers,
		"batch_size", cfg.Batch.Size)
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
