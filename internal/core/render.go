package core

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"coursereg/internal/domain"
	"coursereg/internal/protocol"
)

// Renderer prints server frames for a person at a terminal.  Colours
// are only emitted when the output supports them.
type Renderer struct {
	w       io.Writer
	ok      lipgloss.Style
	fail    lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
}

// NewRenderer returns a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	re := lipgloss.NewRenderer(w)
	return &Renderer{
		w:       w,
		ok:      re.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:    re.NewStyle().Foreground(lipgloss.Color("196")),
		heading: re.NewStyle().Bold(true),
		muted:   re.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Frame renders one frame.
func (r *Renderer) Frame(f protocol.Frame) error {
	switch f.Channel {
	case protocol.ChannelText:
		return r.println(r.muted.Render(f.Text))
	case protocol.ChannelObject:
		if f.Response == nil {
			return fmt.Errorf("object frame without response")
		}
		return r.Response(*f.Response)
	default:
		return fmt.Errorf("unknown frame channel %q", f.Channel)
	}
}

// Response renders a structured server response.
func (r *Renderer) Response(resp protocol.Response) error {
	if !resp.OK() {
		return r.println(r.fail.Render("✗ " + resp.Message))
	}

	switch resp.Kind {
	case protocol.KindNone:
		return r.println(r.ok.Render("✓ Done"))

	case protocol.KindCourse:
		var c domain.Course
		if err := resp.Into(&c); err != nil {
			return err
		}
		return r.println(fmt.Sprintf("%s  %s %s",
			r.heading.Render(c.Code), c.Name, r.muted.Render(fmt.Sprintf("(%d credits)", c.Credits))))

	case protocol.KindCourses:
		var list []domain.Course
		if err := resp.Into(&list); err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, c := range list {
			rows = append(rows, []string{c.Code, c.Name, strconv.Itoa(c.Credits)})
		}
		return r.table([]string{"CODE", "NAME", "CREDITS"}, rows)

	case protocol.KindRegistrations:
		var list []domain.Registration
		if err := resp.Into(&list); err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, reg := range list {
			rows = append(rows, []string{reg.CourseCode, reg.CourseName})
		}
		return r.table([]string{"CODE", "NAME"}, rows)

	case protocol.KindStudent:
		var s domain.Student
		if err := resp.Into(&s); err != nil {
			return err
		}
		return r.println(r.ok.Render(fmt.Sprintf("Logged in as %s (%s)", s.Name, s.ID)))

	default:
		return r.println(r.muted.Render(fmt.Sprintf("(unrecognised %s response)", resp.Kind)))
	}
}

func (r *Renderer) table(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.muted).
		Headers(headers...).
		Rows(rows...)
	return r.println(t.String())
}

func (r *Renderer) println(s string) error {
	_, err := io.WriteString(r.w, strings.TrimRight(s, "\n")+"\n")
	return err
}
