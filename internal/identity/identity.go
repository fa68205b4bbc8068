// Package identity resolves the student behind a new connection from
// its login line: "<student id>" or "<student id>\t<password>".
package identity

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
	"coursereg/internal/protocol"
	"coursereg/internal/store"
)

// Resolver turns a decoded login line into a student.
//
// Implementations return errors.ErrBadHandshake for a malformed line
// and errors.ErrAuthFailed when the student cannot be admitted.  Unknown
// ids and wrong passwords are reported the same way.
type Resolver interface {
	Resolve(ctx context.Context, login protocol.Command) (domain.Student, error)
}

// New picks the resolver for the given mode.
func New(dir store.Directory, requirePassword bool) Resolver {
	if requirePassword {
		return &PasswordResolver{Directory: dir}
	}
	return &TrustedResolver{Directory: dir}
}

// ── password ─────────────────────────────────────────────────────────

// PasswordResolver requires "<id>\t<password>" and checks the password
// against the stored bcrypt hash.
type PasswordResolver struct {
	Directory store.Directory
}

func (r *PasswordResolver) Resolve(ctx context.Context, login protocol.Command) (domain.Student, error) {
	if login.Len() != 2 || strings.TrimSpace(login.Token()) == "" {
		return domain.Student{}, errors.ErrBadHandshake
	}
	s, err := lookup(ctx, r.Directory, login.Token())
	if err != nil {
		return domain.Student{}, err
	}
	if len(s.PasswordHash) == 0 {
		return domain.Student{}, fmt.Errorf("%w: no password set for %s", errors.ErrAuthFailed, s.ID)
	}
	if err := bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(login.Arg(1))); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", errors.ErrAuthFailed, err)
	}
	return s, nil
}

// ── trusted ──────────────────────────────────────────────────────────

// TrustedResolver admits any known student id.  A password field, if
// present, is ignored.
type TrustedResolver struct {
	Directory store.Directory
}

func (r *TrustedResolver) Resolve(ctx context.Context, login protocol.Command) (domain.Student, error) {
	if login.Len() > 2 || strings.TrimSpace(login.Token()) == "" {
		return domain.Student{}, errors.ErrBadHandshake
	}
	return lookup(ctx, r.Directory, login.Token())
}

func lookup(ctx context.Context, dir store.Directory, id string) (domain.Student, error) {
	s, err := dir.FindStudent(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Student{}, errors.WrapStore("find-student", err)
	}
	if s == nil {
		return domain.Student{}, fmt.Errorf("%w: %w", errors.ErrAuthFailed, errors.ErrStudentNotFound)
	}
	return *s, nil
}

// ── passwords ────────────────────────────────────────────────────────

// HashPassword hashes a password for storage.
func HashPassword(password string) ([]byte, error) {
	return HashPasswordCost(password, bcrypt.DefaultCost)
}

// HashPasswordCost is HashPassword with an explicit bcrypt cost.
func HashPasswordCost(password string, cost int) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass the password with --password")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pass), nil
}
