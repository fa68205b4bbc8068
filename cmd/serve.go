package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/diode"
	"github.com/spf13/cobra"

	"coursereg/internal/core"
	"coursereg/internal/metrics"
	"coursereg/internal/store"
	"coursereg/internal/store/sqlite"
)

func newServeCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the registration server",
		Long: `Listen for student connections and serve registration requests.

Enrollments are staged in memory and written to the database when the
session that made them ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				return a.describeServer(cmd)
			}
			return a.serve(cmd)
		},
	}

	fs := cmd.Flags()
	addAddressFlags(fs, a.cfg)
	addStoreFlags(fs, a.cfg)
	fs.IntVar(&a.cfg.MaxSessions, "max-sessions", a.cfg.MaxSessions, "Concurrent session limit (0 = unbounded)")
	fs.IntVar(&a.cfg.MaxCoursesPerStudent, "max-courses", a.cfg.MaxCoursesPerStudent, "Courses one student may hold")
	fs.BoolVar(&a.cfg.RequireAuth, "require-auth", a.cfg.RequireAuth, "Check passwords at login")
	fs.DurationVar(&a.cfg.GracePeriod, "grace-period", a.cfg.GracePeriod, "How long shutdown waits for sessions to commit")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate settings, print them and exit")
	return cmd
}

// describeServer prints the resolved server settings without opening
// the database or the listener.
func (a *app) describeServer(cmd *cobra.Command) error {
	if err := a.cfg.ValidateServer(); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "listen        %s\n", a.cfg.Address())
	fmt.Fprintf(w, "database      %s\n", a.cfg.DBPath)
	fmt.Fprintf(w, "max sessions  %d\n", a.cfg.MaxSessions)
	fmt.Fprintf(w, "max courses   %d\n", a.cfg.MaxCoursesPerStudent)
	fmt.Fprintf(w, "require auth  %t\n", a.cfg.RequireAuth)
	fmt.Fprintf(w, "grace period  %s\n", a.cfg.GracePeriod)
	return nil
}

func (a *app) serve(cmd *cobra.Command) error {
	if err := a.cfg.ValidateServer(); err != nil {
		return err
	}
	ctx := cmd.Context()

	// Sessions log from many goroutines; the diode keeps a slow
	// terminal from stalling them.
	errOut := cmd.ErrOrStderr()
	wr := diode.NewWriter(errOut, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(errOut, "coursereg: dropped %d log messages\n", missed)
	})
	defer wr.Close()
	a.logger.SetOutput(wr)
	a.logger.SetTimestamps(true)

	db, err := sqlite.Open(ctx, a.cfg.DBPath, a.cfg.CommitRetries, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := store.Open(ctx, db, store.WithMaxCoursesPerStudent(a.cfg.MaxCoursesPerStudent))
	if err != nil {
		return err
	}

	m := metrics.New()
	mode, err := core.BuildServer(a.cfg, catalog, m, a.logger)
	if err != nil {
		return err
	}

	runErr := mode.Run(ctx)

	// Sessions cut off by the grace period leave staged changes behind.
	if err := catalog.Commit(context.WithoutCancel(ctx)); err != nil {
		a.logger.Error("final commit: %v", err)
		if runErr == nil {
			runErr = err
		}
	}
	a.logger.Verbose("metrics: %s", m.JSON())
	return runErr
}
