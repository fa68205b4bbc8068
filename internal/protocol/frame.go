package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Channel selects how a frame's body is interpreted.
type Channel string

const (
	// ChannelObject frames carry a JSON-encoded Response.
	ChannelObject Channel = "OBJ"
	// ChannelText frames carry a JSON-quoted human-readable string.
	ChannelText Channel = "TXT"
)

// Frame is one decoded server message.
type Frame struct {
	Channel  Channel
	Text     string    // set for ChannelText
	Response *Response // set for ChannelObject
}

// EncodeResponse renders r as an object-channel frame.
func EncodeResponse(r Response) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return frame(ChannelObject, body), nil
}

// EncodeText renders s as a text-channel frame.  The text is quoted so
// embedded newlines stay inside a single frame.
func EncodeText(s string) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return frame(ChannelText, body), nil
}

func frame(ch Channel, body []byte) []byte {
	out := make([]byte, 0, len(ch)+len(body)+2)
	out = append(out, ch...)
	out = append(out, Delimiter...)
	out = append(out, body...)
	return append(out, '\n')
}

// ReadFrame reads and decodes the next frame.  A clean end of stream
// returns io.EOF; a frame cut short returns io.ErrUnexpectedEOF.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return Frame{}, io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}
	return ParseFrame(line)
}

// ParseFrame decodes a single frame line.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimRight(line, "\r\n")
	tag, body, ok := strings.Cut(line, Delimiter)
	if !ok {
		return Frame{}, fmt.Errorf("malformed frame %q", line)
	}

	switch Channel(tag) {
	case ChannelText:
		var s string
		if err := json.Unmarshal([]byte(body), &s); err != nil {
			return Frame{}, fmt.Errorf("decode text frame: %w", err)
		}
		return Frame{Channel: ChannelText, Text: s}, nil
	case ChannelObject:
		var wire struct {
			Status  Status          `json:"status"`
			Kind    Kind            `json:"kind"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(body), &wire); err != nil {
			return Frame{}, fmt.Errorf("decode object frame: %w", err)
		}
		resp := &Response{Status: wire.Status, Kind: wire.Kind, Message: wire.Message}
		if len(wire.Data) > 0 {
			resp.Data = wire.Data
		}
		return Frame{Channel: ChannelObject, Response: resp}, nil
	default:
		return Frame{}, fmt.Errorf("unknown frame channel %q", tag)
	}
}

// Encoder writes frames to a stream.  Each frame is written with a
// single Write call.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteResponse sends r on the object channel.
func (e *Encoder) WriteResponse(r Response) error {
	b, err := EncodeResponse(r)
	if err != nil {
		return err
	}
	return e.write(b)
}

// WriteText sends s on the text channel.
func (e *Encoder) WriteText(s string) error {
	b, err := EncodeText(s)
	if err != nil {
		return err
	}
	return e.write(b)
}

func (e *Encoder) write(b []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.w.Write(b)
	return err
}
