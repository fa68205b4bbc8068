// Package cmd implements the coursereg command line: the server, the
// interactive client and the catalogue admin commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"coursereg/config"
	"coursereg/util"
)

var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected command.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg     *config.Config
	envFile string
	verbose int
	quiet   bool
	logger  *util.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:   "coursereg",
		Short: "Course registration server and client",
		Long: `coursereg runs a multi-client course registration server backed by
SQLite, and an interactive client that logs in to it.

Settings come from flags, then COURSEREG_* environment variables, then
a .env file, then built-in defaults.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.CountVarP(&a.verbose, "verbose", "v", "Increase verbosity (-v verbose, -vv debug)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors")
	pf.StringVar(&a.envFile, "env-file", "", "Read environment variables from this file instead of ./.env")

	root.AddCommand(
		newServeCmd(a),
		newConnectCmd(a),
		newCourseCmd(a),
		newStudentCmd(a),
	)
	return root
}

// load resolves the configuration for the running command.  Flags the
// user set beat the environment, which beats the .env file, which beats
// the defaults the flags were registered with.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	if err := config.LoadDotEnv(files...); err != nil {
		return err
	}

	fs := cmd.Flags()
	changed := changedFlags(fs)
	if err := config.LoadFromEnv(a.cfg); err != nil {
		return err
	}
	if err := reapply(fs, changed); err != nil {
		return err
	}

	switch {
	case a.quiet:
		a.cfg.Verbose = 0
	case fs.Changed("verbose"):
		a.cfg.Verbose = min(1+a.verbose, int(util.LogDebug))
	}

	a.logger = util.NewLogger(a.cfg.Verbose)
	a.logger.SetOutput(cmd.ErrOrStderr())
	return nil
}

// ── flag helpers ─────────────────────────────────────────────────────

// changedFlags records the value of every flag set on the command line.
func changedFlags(fs *pflag.FlagSet) map[string]string {
	changed := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	return changed
}

// reapply writes recorded flag values back after the environment has
// been overlaid.  Flags not bound to the configuration are skipped.
func reapply(fs *pflag.FlagSet, changed map[string]string) error {
	for name, value := range changed {
		switch name {
		case "verbose", "quiet", "env-file":
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	return nil
}

func addAddressFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host or address")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port")
}

func addStoreFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file")
	fs.IntVar(&cfg.CommitRetries, "commit-retries", cfg.CommitRetries, "Attempts per commit while the database is busy")
}
