// Package protocol implements the line-oriented registration protocol:
// request lines are tab-delimited fields whose first field selects the
// operation, and every server message is a single tagged frame on
// either the object channel or the text channel.
package protocol

// Delimiter separates the fields of a request line.
const Delimiter = "\t"

// MaxLineLength bounds a single request line, delimiter and newline
// included.
const MaxLineLength = 4096

// Code identifies a request operation.  The set is closed: every value
// other than CodeUnknown maps to exactly one wire token.
type Code int

const (
	CodeUnknown Code = iota
	SearchCourse
	AddCourse
	RemoveCourse
	ListCourses
	ListStudentCourses
	Quit
)

// Codes lists every known code in wire order.
var Codes = []Code{SearchCourse, AddCourse, RemoveCourse, ListCourses, ListStudentCourses, Quit}

var tokens = func() map[string]Code {
	m := make(map[string]Code, len(Codes))
	for _, c := range Codes {
		m[c.Token()] = c
	}
	return m
}()

// ParseCode maps a wire token to its Code.
func ParseCode(token string) (Code, bool) {
	c, ok := tokens[token]
	return c, ok
}

// Token returns the wire token for c, or "" for CodeUnknown.
func (c Code) Token() string {
	switch c {
	case SearchCourse:
		return "1"
	case AddCourse:
		return "2"
	case RemoveCourse:
		return "3"
	case ListCourses:
		return "4"
	case ListStudentCourses:
		return "5"
	case Quit:
		return "6"
	default:
		return ""
	}
}

func (c Code) String() string {
	switch c {
	case SearchCourse:
		return "search-course"
	case AddCourse:
		return "add-course"
	case RemoveCourse:
		return "remove-course"
	case ListCourses:
		return "list-courses"
	case ListStudentCourses:
		return "list-student-courses"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// Arity is the exact number of fields, code included, a request with
// this code must carry.
func (c Code) Arity() int {
	switch c {
	case SearchCourse, AddCourse, RemoveCourse:
		return 2
	case ListCourses, ListStudentCourses, Quit:
		return 1
	default:
		return 0
	}
}

// Menu is sent on the text channel when a session starts.
const Menu = "Course Registration System\n" +
	"1. Search catalogue courses\n" +
	"2. Add course to student courses\n" +
	"3. Remove course from student courses\n" +
	"4. View all courses in catalogue\n" +
	"5. View all courses taken by student\n" +
	"6. Quit"
