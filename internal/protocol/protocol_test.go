package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereg/internal/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"code only", "4\n", []string{"4"}},
		{"code and arg", "1\tCS101\n", []string{"1", "CS101"}},
		{"crlf", "1\tCS101\r\n", []string{"1", "CS101"}},
		{"no newline", "5", []string{"5"}},
		{"empty fields kept", "2\t\tX", []string{"2", "", "X"}},
		{"trailing delimiter", "1\t", []string{"1", ""}},
		{"unknown token", "hello world", []string{"hello world"}},
		{"empty line", "\n", []string{""}},
		{"blank", "", []string{""}},
		{"whitespace only", "  \t \r\n", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.raw).Fields)
		})
	}
}

func TestCommand_Accessors(t *testing.T) {
	cmd := Decode("3\tENSF409")

	code, ok := cmd.Code()
	require.True(t, ok)
	assert.Equal(t, RemoveCourse, code)
	assert.Equal(t, "3", cmd.Token())
	assert.Equal(t, "ENSF409", cmd.Arg(1))
	assert.Equal(t, "", cmd.Arg(2))
	assert.Equal(t, "", cmd.Arg(0))
	assert.False(t, cmd.IsClosed())

	assert.True(t, Decode("").IsClosed())
	assert.Equal(t, "", Command{}.Token())
	assert.False(t, Command{}.IsClosed())
}

func TestCodes_RoundTrip(t *testing.T) {
	for _, c := range Codes {
		got, ok := ParseCode(c.Token())
		require.True(t, ok, c.String())
		assert.Equal(t, c, got)
		assert.NotZero(t, c.Arity(), c.String())
	}

	_, ok := ParseCode("7")
	assert.False(t, ok)
	_, ok = ParseCode("")
	assert.False(t, ok)
	assert.Equal(t, "", CodeUnknown.Token())
}

func TestCode_Arity(t *testing.T) {
	assert.Equal(t, 2, SearchCourse.Arity())
	assert.Equal(t, 2, AddCourse.Arity())
	assert.Equal(t, 2, RemoveCourse.Arity())
	assert.Equal(t, 1, ListCourses.Arity())
	assert.Equal(t, 1, ListStudentCourses.Arity())
	assert.Equal(t, 1, Quit.Arity())
}

func TestCommand_Encode(t *testing.T) {
	assert.Equal(t, "1\tCS101", Command{Fields: []string{"1", "CS101"}}.Encode())
	assert.Equal(t, "6", Command{Fields: []string{"6"}}.Encode())

	line := "2\tENSF409"
	assert.Equal(t, line, Decode(line+"\n").Encode())
}

func TestCodes_TokensUnique(t *testing.T) {
	assert.Len(t, tokens, len(Codes))
}

func TestReadLine_Limit(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", 100)+"\n"), 16)
	_, err := ReadLine(r, 50)
	assert.ErrorIs(t, err, ErrLineTooLong)

	r = bufio.NewReaderSize(strings.NewReader(strings.Repeat("y", 40)+"\nrest"), 16)
	line, err := ReadLine(r, 50)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", 40)+"\n", line)

	line, err = ReadLine(r, 50)
	assert.Equal(t, "rest", line)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrames_TextKeepsNewlines(t *testing.T) {
	b, err := EncodeText(Menu)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, []byte("\n")), "a text frame must be a single line")
	assert.True(t, bytes.HasPrefix(b, []byte("TXT\t")))

	f, err := ParseFrame(string(b))
	require.NoError(t, err)
	assert.Equal(t, ChannelText, f.Channel)
	assert.Equal(t, Menu, f.Text)
}

func TestFrames_NoPayloadDistinctFromEmptyList(t *testing.T) {
	none, err := EncodeResponse(Done())
	require.NoError(t, err)
	empty, err := EncodeResponse(CourseList(nil))
	require.NoError(t, err)

	assert.Contains(t, string(none), `"kind":"none"`)
	assert.NotContains(t, string(none), `"data"`)
	assert.Contains(t, string(empty), `"kind":"courses"`)
	assert.Contains(t, string(empty), `"data":[]`)

	f, err := ParseFrame(string(empty))
	require.NoError(t, err)
	var list []domain.Course
	require.NoError(t, f.Response.Into(&list))
	assert.NotNil(t, list)
	assert.Empty(t, list)

	f, err = ParseFrame(string(none))
	require.NoError(t, err)
	assert.Nil(t, f.Response.Data)
	assert.Error(t, f.Response.Into(&list))
}

func TestFrames_Failure(t *testing.T) {
	b, err := EncodeResponse(Failure("Unable to find course: %s", "CS999"))
	require.NoError(t, err)

	f, err := ParseFrame(string(b))
	require.NoError(t, err)
	require.Equal(t, ChannelObject, f.Channel)
	assert.False(t, f.Response.OK())
	assert.Equal(t, StatusFailure, f.Response.Status)
	assert.Equal(t, "Unable to find course: CS999", f.Response.Message)
}

func TestEncoder_ReadFrameStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	course := domain.Course{ID: 1, Code: "CS101", Name: "Intro", Credits: 3}
	require.NoError(t, enc.WriteText("hello"))
	require.NoError(t, enc.WriteResponse(CourseFound(course)))

	r := bufio.NewReader(&buf)
	f, err := ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", f.Text)

	f, err = ReadFrame(r)
	require.NoError(t, err)
	require.True(t, f.Response.OK())
	assert.Equal(t, KindCourse, f.Response.Kind)
	var got domain.Course
	require.NoError(t, f.Response.Into(&got))
	assert.Equal(t, course, got)

	_, err = ReadFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_Truncated(t *testing.T) {
	_, err := ReadFrame(bufio.NewReader(strings.NewReader(`OBJ	{"status":"SU`)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseFrame_Malformed(t *testing.T) {
	for _, line := range []string{"garbage", "XYZ\t\"x\"", "TXT\tnot-json", "OBJ\t{"} {
		_, err := ParseFrame(line)
		assert.Error(t, err, line)
	}
}

func TestResponse_IntoFromValue(t *testing.T) {
	r := RegistrationList([]domain.Registration{{StudentID: "s1", CourseID: 2, CourseCode: "CS101"}})
	var got []domain.Registration
	require.NoError(t, r.Into(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "CS101", got[0].CourseCode)
}
