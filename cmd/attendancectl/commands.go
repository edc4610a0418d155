package main

import (
	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

func newDailyCmd() *cobra.Command {
	var opts monthOptions

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Regenerate daily attendance facts and issues for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ym, err := opts.yearMonth()
			if err != nil {
				return err
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Attendance.GenerateDailySummaries(cmd.Context(), attendance.GenerateRequest{
				Year:        ym.Year,
				Month:       int(ym.Month),
				PerformedBy: opts.by,
			})
			if err != nil {
				return classify(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newMonthlyCmd() *cobra.Command {
	var opts monthOptions

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Roll a month's daily facts into monthly summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ym, err := opts.yearMonth()
			if err != nil {
				return err
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Attendance.GenerateMonthlySummaries(cmd.Context(), attendance.GenerateRequest{
				Year:        ym.Year,
				Month:       int(ym.Month),
				PerformedBy: opts.by,
			})
			if err != nil {
				return classify(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var (
		opts         monthOptions
		scope        string
		departmentID string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture an immutable snapshot of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ym, err := opts.yearMonth()
			if err != nil {
				return err
			}
			req := snapshot.CreateRequest{
				Scope:       scope,
				Year:        ym.Year,
				Month:       int(ym.Month),
				PerformedBy: opts.by,
			}
			if departmentID != "" {
				req.DepartmentID = &departmentID
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Snapshots.Create(cmd.Context(), req)
			if err != nil {
				return classify(err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&scope, "scope", string(snapshot.ScopeCompany), "COMPANY or DEPARTMENT")
	cmd.Flags().StringVar(&departmentID, "department", "", "Department id for DEPARTMENT scope")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Replace a month's data with a snapshot and recompute it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Snapshots.Restore(cmd.Context(), snapshot.RestoreRequest{
				ID:          args[0],
				PerformedBy: by,
			})
			if err != nil {
				return classify(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&by, "by", "cli", "Recorded as performed_by")
	return cmd
}

// newTokenCmd mints an access token for local use against the API.
func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token signed with JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).
				GenerateAccessToken(userID, jwt.Role(role))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"access_token": token, "expires_at": expiresAt})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user_id claim (required)")
	cmd.Flags().StringVar(&role, "role", string(jwt.RoleAdmin), "admin or employee")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
