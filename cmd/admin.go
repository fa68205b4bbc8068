package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coursereg/internal/core"
	"coursereg/internal/domain"
	"coursereg/internal/identity"
	"coursereg/internal/protocol"
	"coursereg/internal/store/sqlite"
)

// ── course ───────────────────────────────────────────────────────────

func newCourseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Manage the course catalogue",
	}
	addStoreFlags(cmd.PersistentFlags(), a.cfg)

	var credits int
	add := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add a course, or rename the one with the same code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *sqlite.DB) error {
				c, err := db.UpsertCourse(cmd.Context(), domain.Course{
					Code:    strings.ToUpper(strings.TrimSpace(args[0])),
					Name:    strings.TrimSpace(args[1]),
					Credits: credits,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s %q (%d credits) as #%d\n", c.Code, c.Name, c.Credits, c.ID)
				return nil
			})
		},
	}
	add.Flags().IntVar(&credits, "credits", 3, "Credit value")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd.Context(), func(db *sqlite.DB) error {
				courses, err := db.Courses(cmd.Context())
				if err != nil {
					return err
				}
				resp := protocol.CourseList(courses)
				if len(courses) == 0 {
					resp = protocol.Failure("No courses in catalogue")
				}
				return core.NewRenderer(cmd.OutOrStdout()).Response(resp)
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

// ── student ──────────────────────────────────────────────────────────

func newStudentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage student logins",
	}
	addStoreFlags(cmd.PersistentFlags(), a.cfg)

	var password string
	add := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add a student, or reset the name and password of an existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := identity.PromptPassword("Password for " + args[0] + ": ")
				if err != nil {
					return err
				}
				password = pw
			}
			hash, err := identity.HashPassword(password)
			if err != nil {
				return err
			}

			return a.withDB(cmd.Context(), func(db *sqlite.DB) error {
				s := domain.Student{
					ID:           strings.TrimSpace(args[0]),
					Name:         strings.TrimSpace(args[1]),
					PasswordHash: hash,
				}
				if err := db.UpsertStudent(cmd.Context(), s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved student %s (%s)\n", s.ID, s.Name)
				return nil
			})
		},
	}
	add.Flags().StringVar(&password, "password", "", "Login password (prompted for when omitted)")

	cmd.AddCommand(add)
	return cmd
}

func (a *app) withDB(ctx context.Context, fn func(*sqlite.DB) error) error {
	if a.cfg.DBPath == "" {
		return fmt.Errorf("database path is required (set --db or COURSEREG_DB_PATH)")
	}
	db, err := sqlite.Open(ctx, a.cfg.DBPath, a.cfg.CommitRetries, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
