package protocol

import (
	"encoding/json"
	"fmt"

	"coursereg/internal/domain"
)

// Status tags a Response as a success or a failure.
type Status string

const (
	StatusSuccess Status = "SUCC"
	StatusFailure Status = "FAIL"
)

// Kind names the payload type carried by a Response.  It is always
// present on the wire, so "nothing to return" (KindNone) can never be
// mistaken for an empty list.
type Kind string

const (
	KindNone          Kind = "none"
	KindCourse        Kind = "course"
	KindCourses       Kind = "courses"
	KindRegistrations Kind = "registrations"
	KindStudent       Kind = "student"
)

// Response is a tagged result sent on the object channel.
//
// When encoding, Data holds the payload value.  When a Response is read
// back with ReadFrame, Data holds the raw JSON; use Into to decode it.
type Response struct {
	Status  Status `json:"status"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK reports whether the response is a success.
func (r Response) OK() bool { return r.Status == StatusSuccess }

// Into decodes the payload into v.
func (r Response) Into(v any) error {
	if r.Data == nil {
		return fmt.Errorf("response of kind %q has no payload", r.Kind)
	}
	raw, ok := r.Data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(r.Data); err != nil {
			return fmt.Errorf("re-encode payload: %w", err)
		}
	}
	return json.Unmarshal(raw, v)
}

// ── constructors ─────────────────────────────────────────────────────

// Failure builds a failed response with a human-readable message.
func Failure(format string, args ...any) Response {
	return Response{Status: StatusFailure, Kind: KindNone, Message: fmt.Sprintf(format, args...)}
}

// Done is a success with no payload.
func Done() Response {
	return Response{Status: StatusSuccess, Kind: KindNone}
}

// CourseFound carries a single course.
func CourseFound(c domain.Course) Response {
	return Response{Status: StatusSuccess, Kind: KindCourse, Data: c}
}

// CourseList carries the catalogue; a nil list is sent as [].
func CourseList(list []domain.Course) Response {
	if list == nil {
		list = []domain.Course{}
	}
	return Response{Status: StatusSuccess, Kind: KindCourses, Data: list}
}

// RegistrationList carries a student's registrations; nil is sent as [].
func RegistrationList(list []domain.Registration) Response {
	if list == nil {
		list = []domain.Registration{}
	}
	return Response{Status: StatusSuccess, Kind: KindRegistrations, Data: list}
}

// LoggedIn confirms the login handshake.
func LoggedIn(s domain.Student) Response {
	return Response{Status: StatusSuccess, Kind: KindStudent, Data: s}
}
