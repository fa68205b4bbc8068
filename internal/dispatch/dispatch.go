// Package dispatch routes decoded requests to the course registration
// handlers.  Every routed request gets exactly one response, except
// quit and the end-of-input marker, which stop the session silently.
package dispatch

import (
	"context"

	"coursereg/internal/metrics"
	"coursereg/internal/protocol"
	"coursereg/internal/session"
	"coursereg/internal/store"
)

const msgInternal = "Internal error processing request"

// Dispatcher implements session.Handler on top of a store.Gateway.
type Dispatcher struct {
	gateway store.Gateway
	metrics *metrics.Collector
}

// New returns a Dispatcher.  m may be nil.
func New(gw store.Gateway, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{gateway: gw, metrics: m}
}

// Dispatch handles one request.  It only returns errors from writing
// to the client.
func (d *Dispatcher) Dispatch(ctx context.Context, c session.Client, cmd protocol.Command) error {
	log := c.Logger()

	if cmd.Len() == 0 {
		log.Debug("ignoring request with no fields")
		return nil
	}
	if cmd.IsClosed() {
		log.Verbose("client closed input")
		c.Stop(ctx)
		return nil
	}

	code, ok := cmd.Code()
	if !ok {
		d.metrics.CommandUnknown()
		log.Verbose("unknown input %q", cmd.Token())
		return c.Notify("Unknown input: " + cmd.Token())
	}
	if cmd.Len() != code.Arity() {
		d.metrics.CommandDropped()
		log.Warn("dropping %s request: %d fields, want %d", code, cmd.Len(), code.Arity())
		return nil
	}
	d.metrics.CommandHandled()

	switch code {
	case protocol.SearchCourse:
		return d.searchCourse(ctx, c, cmd.Arg(1))
	case protocol.AddCourse:
		return d.addCourse(ctx, c, cmd.Arg(1))
	case protocol.RemoveCourse:
		return d.removeCourse(ctx, c, cmd.Arg(1))
	case protocol.ListCourses:
		return d.listCourses(ctx, c)
	case protocol.ListStudentCourses:
		return d.listStudentCourses(ctx, c)
	case protocol.Quit:
		log.Verbose("client quit")
		c.Stop(ctx)
		return nil
	case protocol.CodeUnknown:
	}
	return c.Notify("Unknown input: " + cmd.Token())
}

// ── handlers ─────────────────────────────────────────────────────────

func (d *Dispatcher) searchCourse(ctx context.Context, c session.Client, code string) error {
	course, err := d.gateway.FindCourseByCode(ctx, code)
	if err != nil {
		return d.internal(c, "find course", err)
	}
	if course == nil {
		return c.Reply(protocol.Failure("Unable to find course: %s", code))
	}
	return c.Reply(protocol.CourseFound(*course))
}

func (d *Dispatcher) addCourse(ctx context.Context, c session.Client, code string) error {
	course, err := d.gateway.FindCourseByCode(ctx, code)
	if err != nil {
		return d.internal(c, "find course", err)
	}
	if course == nil {
		return c.Reply(protocol.Failure("Course: %s does not exist in database", code))
	}

	ok, err := d.gateway.Enroll(ctx, c.Student().ID, course.ID)
	if err != nil {
		return d.internal(c, "enroll", err)
	}
	if !ok {
		return c.Reply(protocol.Failure("Unable to register student into course: %s", code))
	}
	c.Logger().Verbose("enrolled in %s", course.Code)
	return c.Reply(protocol.Done())
}

func (d *Dispatcher) removeCourse(ctx context.Context, c session.Client, code string) error {
	course, err := d.gateway.FindCourseByCode(ctx, code)
	if err != nil {
		return d.internal(c, "find course", err)
	}
	if course == nil {
		return c.Reply(protocol.Failure("Course: %s does not exist in database", code))
	}

	ok, err := d.gateway.Unenroll(ctx, c.Student().ID, course.Name)
	if err != nil {
		return d.internal(c, "unenroll", err)
	}
	if !ok {
		return c.Reply(protocol.Failure("Unable to remove student from course: %s", code))
	}
	c.Logger().Verbose("unenrolled from %s", course.Code)
	return c.Reply(protocol.Done())
}

func (d *Dispatcher) listCourses(ctx context.Context, c session.Client) error {
	list, err := d.gateway.AllCourses(ctx)
	if err != nil {
		return d.internal(c, "list courses", err)
	}
	if len(list) == 0 {
		return c.Reply(protocol.Failure("No courses in catalogue"))
	}
	return c.Reply(protocol.CourseList(list))
}

func (d *Dispatcher) listStudentCourses(ctx context.Context, c session.Client) error {
	regs, err := d.gateway.RegistrationsForStudent(ctx, c.Student().ID)
	if err != nil {
		return d.internal(c, "list registrations", err)
	}
	if len(regs) == 0 {
		return c.Reply(protocol.Failure("Not registered in any courses"))
	}
	return c.Reply(protocol.RegistrationList(regs))
}

// internal logs a gateway failure and reports it to the client.
func (d *Dispatcher) internal(c session.Client, op string, err error) error {
	c.Logger().Error("%s: %v", op, err)
	d.metrics.RecordError(err.Error())
	return c.Reply(protocol.Failure(msgInternal))
}

var _ session.Handler = (*Dispatcher)(nil)
