package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
)

// DefaultMaxCoursesPerStudent caps how many courses one student may hold.
const DefaultMaxCoursesPerStudent = 6

// Catalog is the in-memory Gateway and Directory.  Mutations are
// visible to every session immediately and journalled; Commit hands
// the journal to the Persister, if any, and clears it on success.
type Catalog struct {
	mu       sync.RWMutex
	courses  map[int64]domain.Course
	byCode   map[string]int64
	byName   map[string]int64 // names are unique; Unenroll resolves by name
	students map[string]domain.Student
	enrolled map[string][]int64 // student id → course ids, enrollment order
	pending  []Change

	commitMu  sync.Mutex // one flush at a time
	persister Persister
	maxPer    int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPersister makes Commit write through to p.
func WithPersister(p Persister) Option {
	return func(c *Catalog) { c.persister = p }
}

// WithMaxCoursesPerStudent overrides the per-student course limit.
// Values below 1 keep the default.
func WithMaxCoursesPerStudent(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.maxPer = n
		}
	}
}

// NewCatalog returns an empty Catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		courses:  make(map[int64]domain.Course),
		byCode:   make(map[string]int64),
		byName:   make(map[string]int64),
		students: make(map[string]domain.Student),
		enrolled: make(map[string][]int64),
		maxPer:   DefaultMaxCoursesPerStudent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open builds a Catalog populated from the persister's current data.
func Open(ctx context.Context, p Persister, opts ...Option) (*Catalog, error) {
	c := NewCatalog(append(opts, WithPersister(p))...)
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, errors.WrapStore("load", err)
	}
	if err := c.Restore(snap); err != nil {
		return nil, errors.WrapStore("load", err)
	}
	return c, nil
}

// Restore replaces the catalogue contents with snap.  The journal is
// not touched.  Two courses sharing a code or a name are refused.
func (c *Catalog) Restore(snap *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.courses)
	clear(c.byCode)
	clear(c.byName)
	clear(c.students)
	clear(c.enrolled)
	for _, course := range snap.Courses {
		if err := c.putCourse(course); err != nil {
			return err
		}
	}
	for _, s := range snap.Students {
		c.students[s.ID] = s
	}
	for _, r := range snap.Registrations {
		c.enrolled[r.StudentID] = append(c.enrolled[r.StudentID], r.CourseID)
	}
	return nil
}

// AddCourse inserts or replaces a course without journalling it.  It
// fails with ErrDuplicateCourse when another course already has the
// code or the name.
func (c *Catalog) AddCourse(course domain.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putCourse(course)
}

// AddStudent inserts or replaces a student without journalling it.
func (c *Catalog) AddStudent(s domain.Student) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.students[s.ID] = s
}

func (c *Catalog) putCourse(course domain.Course) error {
	if id, ok := c.byCode[codeKey(course.Code)]; ok && id != course.ID {
		return fmt.Errorf("%w: code %s", errors.ErrDuplicateCourse, course.Code)
	}
	if id, ok := c.byName[course.Name]; ok && id != course.ID {
		return fmt.Errorf("%w: %q is %s", errors.ErrDuplicateCourse, course.Name, c.courses[id].Code)
	}

	if old, ok := c.courses[course.ID]; ok {
		delete(c.byCode, codeKey(old.Code))
		delete(c.byName, old.Name)
	}
	c.courses[course.ID] = course
	c.byCode[codeKey(course.Code)] = course.ID
	c.byName[course.Name] = course.ID
	return nil
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ── Gateway ──────────────────────────────────────────────────────────

// FindCourseByCode matches codes case-insensitively.
func (c *Catalog) FindCourseByCode(_ context.Context, code string) (*domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byCode[codeKey(code)]
	if !ok {
		return nil, nil
	}
	course := c.courses[id]
	return &course, nil
}

// AllCourses returns the catalogue ordered by course id.
func (c *Catalog) AllCourses(_ context.Context) ([]domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	slices.SortFunc(out, func(a, b domain.Course) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// RegistrationsForStudent lists registrations in enrollment order.
func (c *Catalog) RegistrationsForStudent(_ context.Context, studentID string) ([]domain.Registration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.enrolled[studentID]
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]domain.Registration, 0, len(ids))
	for _, id := range ids {
		course := c.courses[id]
		out = append(out, domain.Registration{
			StudentID:  studentID,
			CourseID:   id,
			CourseCode: course.Code,
			CourseName: course.Name,
		})
	}
	return out, nil
}

// Enroll refuses unknown courses, duplicate registrations and students
// already at the course limit.
func (c *Catalog) Enroll(_ context.Context, studentID string, courseID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.courses[courseID]; !ok {
		return false, nil
	}
	ids := c.enrolled[studentID]
	if slices.Contains(ids, courseID) || len(ids) >= c.maxPer {
		return false, nil
	}
	c.enrolled[studentID] = append(ids, courseID)
	c.pending = append(c.pending, Change{Op: OpEnroll, StudentID: studentID, CourseID: courseID})
	return true, nil
}

// Unenroll matches the course name exactly.  Names are unique, so it
// only ever removes the registration for that one course.
func (c *Catalog) Unenroll(_ context.Context, studentID, courseName string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	courseID, ok := c.byName[courseName]
	if !ok {
		return false, nil
	}
	ids := c.enrolled[studentID]
	for i, id := range ids {
		if id != courseID {
			continue
		}
		c.enrolled[studentID] = slices.Delete(ids, i, i+1)
		if len(c.enrolled[studentID]) == 0 {
			delete(c.enrolled, studentID)
		}
		c.pending = append(c.pending, Change{Op: OpUnenroll, StudentID: studentID, CourseID: id})
		return true, nil
	}
	return false, nil
}

// Commit flushes every staged change, from any session, in one batch.
// A failed flush keeps the journal so the next Commit retries it.
func (c *Catalog) Commit(ctx context.Context) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.mu.RLock()
	batch := slices.Clone(c.pending)
	c.mu.RUnlock()

	if len(batch) == 0 {
		return nil
	}
	if c.persister != nil {
		if err := c.persister.Flush(ctx, batch); err != nil {
			return errors.WrapStore("flush", err)
		}
	}

	// Only this goroutine removes from the journal, so the batch is
	// still its prefix.
	c.mu.Lock()
	c.pending = slices.Delete(c.pending, 0, len(batch))
	c.mu.Unlock()
	return nil
}

// Pending returns the number of staged, uncommitted changes.
func (c *Catalog) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// ── Directory ────────────────────────────────────────────────────────

// FindStudent returns nil, nil for an unknown id.
func (c *Catalog) FindStudent(_ context.Context, id string) (*domain.Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

var (
	_ Gateway   = (*Catalog)(nil)
	_ Directory = (*Catalog)(nil)
)
