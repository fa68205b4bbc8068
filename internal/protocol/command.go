package protocol

import (
	"bufio"
	"errors"
	"strings"
)

// ErrLineTooLong is returned by ReadLine when a request exceeds the
// configured limit before a newline is seen.
var ErrLineTooLong = errors.New("request line too long")

// Command is one decoded request line.  Fields[0] is the code token,
// the rest are arguments.
type Command struct {
	Fields []string
}

// Decode splits a raw request line into fields.  It never fails:
// validity is the dispatcher's concern.  Empty fields are kept in
// position.  A blank line decodes to a single empty field, the marker
// for a client that closed its input.
func Decode(raw string) Command {
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")
	if strings.TrimSpace(raw) == "" {
		return Command{Fields: []string{""}}
	}
	return Command{Fields: strings.Split(raw, Delimiter)}
}

// Len returns the number of fields.
func (c Command) Len() int { return len(c.Fields) }

// Token returns the raw code field, or "" for a field-less command.
func (c Command) Token() string {
	if len(c.Fields) == 0 {
		return ""
	}
	return c.Fields[0]
}

// Arg returns argument i (1-based, matching field positions), or "".
func (c Command) Arg(i int) string {
	if i <= 0 || i >= len(c.Fields) {
		return ""
	}
	return c.Fields[i]
}

// Code resolves the code field.
func (c Command) Code() (Code, bool) {
	return ParseCode(c.Token())
}

// IsClosed reports whether c is the end-of-input marker.
func (c Command) IsClosed() bool {
	return len(c.Fields) == 1 && c.Fields[0] == ""
}

// Encode joins the fields into a request line, without the trailing
// newline.
func (c Command) Encode() string {
	return strings.Join(c.Fields, Delimiter)
}

// ReadLine reads up to and including the next newline.  On EOF it
// returns whatever was read together with the error.  Lines longer
// than limit (when limit > 0) fail with ErrLineTooLong.
func ReadLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if limit > 0 && len(buf) > limit {
			return "", ErrLineTooLong
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), err
	}
}
