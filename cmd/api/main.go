package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start attendance engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(logger, JWTService, cfg.App.AllowedOrigins, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(engine.Attendance),
		Issue:      appHTTP.NewIssueHandler(engine.Issues),
		Snapshot:   appHTTP.NewSnapshotHandler(engine.Snapshots),
		WorkTime:   appHTTP.NewWorkTimeHandler(engine.WorkTime),
	})

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler(cfg.App.Location, logger)
		jobs := cron.NewAttendanceJobs(engine.Attendance, time.Now, cfg.App.Location, logger)
		if err := jobs.RegisterJobs(scheduler, cfg.Cron.DailySpec, cfg.Cron.MonthlySpec); err != nil {
			logger.Error("Failed to register cron jobs", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
}
