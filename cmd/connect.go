package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coursereg/internal/core"
	"coursereg/internal/identity"
)

func newConnectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Log in to a registration server",
		Long: `Log in as a student and send requests read from standard input.

Each input line is a menu choice followed by its arguments, separated by
spaces or tabs.  Input ends with EOF or choice 6.`,
		Example: `  coursereg connect --student 30012345
  printf '4\n6\n' | coursereg connect -s 30012345 --password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd)
		},
	}

	fs := cmd.Flags()
	addAddressFlags(fs, a.cfg)
	fs.StringVarP(&a.cfg.StudentID, "student", "s", a.cfg.StudentID, "Student id to log in as")
	fs.StringVar(&a.cfg.Password, "password", a.cfg.Password, "Password (prompted for when omitted)")
	fs.BoolVar(&a.cfg.RequireAuth, "require-auth", a.cfg.RequireAuth, "Send a password with the login")
	fs.IntVar(&a.cfg.DialAttempts, "dial-attempts", a.cfg.DialAttempts, "Connection attempts before giving up")
	fs.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "Dial timeout")
	return cmd
}

func (a *app) connect(cmd *cobra.Command) error {
	if err := a.cfg.ValidateClient(); err != nil {
		return err
	}

	if !a.cfg.RequireAuth {
		a.cfg.Password = ""
	} else if a.cfg.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := identity.PromptPassword("Password: ")
		if err != nil {
			return err
		}
		a.cfg.Password = pw
	}

	mode, err := core.BuildClient(a.cfg, a.logger)
	if err != nil {
		return err
	}
	if cm, ok := mode.(*core.ConnectMode); ok {
		cm.Stdin = cmd.InOrStdin()
		cm.Stdout = cmd.OutOrStdout()
	}
	return mode.Run(cmd.Context())
}
