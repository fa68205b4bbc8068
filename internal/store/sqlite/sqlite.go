// Package sqlite is the durable backend of the course catalogue.  The
// schema is managed by goose migrations embedded in the binary.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
	"coursereg/internal/retry"
	"coursereg/internal/store"
	"coursereg/util"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DefaultFlushAttempts bounds how often a busy flush is retried.
const DefaultFlushAttempts = 5

// DB is a SQLite-backed store.Persister with a few administrative
// helpers for the CLI.
type DB struct {
	db      *sql.DB
	logger  *util.Logger
	backoff *retry.Backoff
}

// Open creates (if needed), connects to and migrates the database at
// path.  attempts bounds retries of a flush that hits a locked
// database; values below 1 use DefaultFlushAttempts.
func Open(ctx context.Context, path string, attempts int, logger *util.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The catalogue is served from memory; the database only sees
	// startup loads, commits and admin commands.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if attempts < 1 {
		attempts = DefaultFlushAttempts
	}
	b := retry.StorageBackoff(attempts)
	b.RetryIf = errors.IsConflict
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Verbose("flush attempt %d: %v (retrying in %s)", attempt, err, wait)
	}

	return &DB{db: db, logger: logger, backoff: b}, nil
}

func migrate(db *sql.DB, logger *util.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(util.NewGooseLogger(logger))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// ── store.Persister ──────────────────────────────────────────────────

// Load reads courses, students and registrations.  Registrations keep
// the order they were made in.
func (d *DB) Load(ctx context.Context) (*store.Snapshot, error) {
	courses, err := d.Courses(ctx)
	if err != nil {
		return nil, err
	}
	snap := &store.Snapshot{Courses: courses}

	rows, err := d.db.QueryContext(ctx, `SELECT id, name, password_hash FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.PasswordHash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan student row: %w", err)
		}
		snap.Students = append(snap.Students, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	rows, err = d.db.QueryContext(ctx, `
		SELECT r.student_id, r.course_id, c.code, c.name
		FROM registrations r JOIN courses c ON c.id = r.course_id
		ORDER BY r.registered_at, r.rowid`)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r domain.Registration
		if err := rows.Scan(&r.StudentID, &r.CourseID, &r.CourseCode, &r.CourseName); err != nil {
			return nil, fmt.Errorf("scan registration row: %w", err)
		}
		snap.Registrations = append(snap.Registrations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	d.logger.Verbose("loaded %d courses, %d students, %d registrations",
		len(snap.Courses), len(snap.Students), len(snap.Registrations))
	return snap, nil
}

// Flush applies changes in one transaction, retrying while the
// database is locked by another writer.
func (d *DB) Flush(ctx context.Context, changes []store.Change) error {
	return d.backoff.Do(ctx, func(int) error {
		return d.flushOnce(ctx, changes)
	})
}

func (d *DB) flushOnce(ctx context.Context, changes []store.Change) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	now := time.Now().Unix()
	for _, c := range changes {
		switch c.Op {
		case store.OpEnroll:
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO registrations (student_id, course_id, registered_at) VALUES (?, ?, ?)`,
				c.StudentID, c.CourseID, now)
		case store.OpUnenroll:
			_, err = tx.ExecContext(ctx,
				`DELETE FROM registrations WHERE student_id = ? AND course_id = ?`,
				c.StudentID, c.CourseID)
		default:
			err = fmt.Errorf("unknown change op %d", c.Op)
		}
		if err != nil {
			return fmt.Errorf("%s %s/%d: %w", c.Op, c.StudentID, c.CourseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	d.logger.Debug("flushed %d registration changes", len(changes))
	return nil
}

// ── administration ───────────────────────────────────────────────────

// Courses lists the catalogue ordered by id.
func (d *DB) Courses(ctx context.Context) ([]domain.Course, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, code, name, credits FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Credits); err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCourse adds a course or renames the one with the same code.
// It returns the stored course.  Course names are unique.
func (d *DB) UpsertCourse(ctx context.Context, c domain.Course) (domain.Course, error) {
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO courses (code, name, credits) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, credits = excluded.credits
		RETURNING id, code, name, credits`,
		c.Code, c.Name, c.Credits)

	var out domain.Course
	if err := row.Scan(&out.ID, &out.Code, &out.Name, &out.Credits); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: courses.name") {
			return domain.Course{}, fmt.Errorf("upsert course %s: %w: name %q is taken", c.Code, errors.ErrDuplicateCourse, c.Name)
		}
		return domain.Course{}, fmt.Errorf("upsert course %s: %w", c.Code, err)
	}
	return out, nil
}

// UpsertStudent adds a student or replaces the name and password hash
// of an existing one.
func (d *DB) UpsertStudent(ctx context.Context, s domain.Student) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO students (id, name, password_hash, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, password_hash = excluded.password_hash`,
		s.ID, s.Name, s.PasswordHash, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert student %s: %w", s.ID, err)
	}
	return nil
}

var _ store.Persister = (*DB)(nil)
