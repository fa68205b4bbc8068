// Package store provides the data store gateway used by sessions: an
// internally synchronized course catalogue whose registration changes
// are staged in memory and written through on Commit.
package store

import (
	"context"

	"coursereg/internal/domain"
)

// Gateway is the data store surface the protocol engine consumes.  A
// single Gateway is shared by every session; implementations do their
// own locking.
type Gateway interface {
	// FindCourseByCode returns nil, nil when no course has that code.
	FindCourseByCode(ctx context.Context, code string) (*domain.Course, error)

	// AllCourses returns the catalogue, possibly empty.
	AllCourses(ctx context.Context) ([]domain.Course, error)

	// RegistrationsForStudent returns the student's registrations,
	// possibly empty.
	RegistrationsForStudent(ctx context.Context, studentID string) ([]domain.Registration, error)

	// Enroll registers the student in the course.  It reports false
	// when the registration is refused.
	Enroll(ctx context.Context, studentID string, courseID int64) (bool, error)

	// Unenroll removes the student from the course with that name.  It
	// reports false when the student is not registered in it.
	Unenroll(ctx context.Context, studentID, courseName string) (bool, error)

	// Commit writes staged changes through to durable storage.
	Commit(ctx context.Context) error
}

// Directory resolves students for identity checks.
type Directory interface {
	// FindStudent returns nil, nil when the id is unknown.
	FindStudent(ctx context.Context, id string) (*domain.Student, error)
}

// Persister is the durable backend behind a Catalog.
type Persister interface {
	// Load reads the full data set.
	Load(ctx context.Context) (*Snapshot, error)

	// Flush applies changes, in order, atomically.
	Flush(ctx context.Context, changes []Change) error
}

// Snapshot is everything a Catalog holds.
type Snapshot struct {
	Courses       []domain.Course
	Students      []domain.Student
	Registrations []domain.Registration
}

// ChangeOp names a staged mutation.
type ChangeOp int

const (
	OpEnroll ChangeOp = iota + 1
	OpUnenroll
)

func (op ChangeOp) String() string {
	switch op {
	case OpEnroll:
		return "enroll"
	case OpUnenroll:
		return "unenroll"
	default:
		return "unknown"
	}
}

// Change is one staged registration mutation.
type Change struct {
	Op        ChangeOp
	StudentID string
	CourseID  int64
}
