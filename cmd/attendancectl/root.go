package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/spf13/cobra"
)

const (
	exitUsage  = 2
	exitLocked = 3
)

type codedError struct {
	code int
	err  error
}

func (e codedError) Error() string { return e.err.Error() }
func (e codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return codedError{code: code, err: err}
}

// classify maps service errors onto exit codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, attendance.ErrFutureMonth):
		return withCode(exitUsage, err)
	case errors.Is(err, lock.ErrScopeLocked):
		return withCode(exitLocked, err)
	}
	return err
}

type monthOptions struct {
	year  int
	month int
	by    string
}

func (o *monthOptions) bind(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().IntVar(&o.year, "year", now.Year(), "Target year")
	cmd.Flags().IntVar(&o.month, "month", int(now.Month()), "Target month (1-12)")
	cmd.Flags().StringVar(&o.by, "by", "cli", "Recorded as performed_by")
}

func (o monthOptions) yearMonth() (calendar.YearMonth, error) {
	ym, err := calendar.NewYearMonth(o.year, o.month)
	if err != nil {
		return ym, withCode(exitUsage, err)
	}
	return ym, nil
}

// loadApp builds the engine from the environment. The caller closes it.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return app.New(cmd.Context(), cfg, app.NewLogger(cfg))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Run attendance summary batches and snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDailyCmd(),
		newMonthlyCmd(),
		newSnapshotCmd(),
		newRestoreCmd(),
		newTokenCmd(),
	)
	return root
}
