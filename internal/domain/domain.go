// Package domain holds the records exchanged between the data store
// gateway and the protocol engine.  The engine only relies on their
// identity fields; everything else is carried through to clients.
package domain

// Course is one entry of the course catalogue.
type Course struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

// Registration links a student to a course.
type Registration struct {
	StudentID  string `json:"studentId"`
	CourseID   int64  `json:"courseId"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
}

// Student is a user allowed to open a session.
type Student struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash []byte `json:"-"`
}
