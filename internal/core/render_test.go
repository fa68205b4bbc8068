package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereg/internal/domain"
	"coursereg/internal/protocol"
)

func TestRenderer_Frames(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	frames := []protocol.Frame{
		{Channel: protocol.ChannelText, Text: "Unknown input: 9"},
		{Channel: protocol.ChannelObject, Response: ptr(protocol.Failure("No courses in catalogue"))},
		{Channel: protocol.ChannelObject, Response: ptr(protocol.Done())},
		{Channel: protocol.ChannelObject, Response: ptr(protocol.CourseFound(domain.Course{Code: "CS101", Name: "Intro", Credits: 3}))},
		{Channel: protocol.ChannelObject, Response: ptr(protocol.CourseList([]domain.Course{{Code: "MATH211", Name: "Linear Methods", Credits: 3}}))},
		{Channel: protocol.ChannelObject, Response: ptr(protocol.RegistrationList([]domain.Registration{{CourseCode: "PHYS259", CourseName: "Electricity and Magnetism"}}))},
	}
	for _, f := range frames {
		require.NoError(t, r.Frame(f))
	}

	out := buf.String()
	for _, want := range []string{
		"Unknown input: 9",
		"✗ No courses in catalogue",
		"✓ Done",
		"CS101", "Intro", "(3 credits)",
		"CODE", "MATH211", "Linear Methods",
		"PHYS259", "Electricity and Magnetism",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderer_BadFrame(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{})
	assert.Error(t, r.Frame(protocol.Frame{Channel: protocol.ChannelObject}))
	assert.Error(t, r.Frame(protocol.Frame{Channel: "XYZ"}))
}

func ptr[T any](v T) *T { return &v }
