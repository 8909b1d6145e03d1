// Package frame implements the fchat wire format: a three letter opcode,
// optionally followed by a space and a JSON object.
package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
)

var ErrMalformedFrame = errors.New("malformed frame")

type Frame struct {
	Opcode  string
	Payload json.RawMessage
}

// Decode parses one raw frame. The payload, if any, must be a JSON object.
func Decode(raw string) (Frame, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if len(raw) < 3 {
		return Frame{}, fmt.Errorf("%w: %q is shorter than an opcode", ErrMalformedFrame, raw)
	}

	f := Frame{Opcode: raw[:3]}
	if len(raw) <= 4 {
		return f, nil
	}

	body := bytes.TrimSpace([]byte(raw[4:]))
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		return Frame{}, fmt.Errorf("%w: %s payload is not a JSON object", ErrMalformedFrame, f.Opcode)
	}
	f.Payload = body
	return f, nil
}

// Encode renders an outbound frame. A nil payload produces a bare opcode.
func Encode(opcode string, payload any) (string, error) {
	opcode = strings.ToUpper(opcode)
	if payload == nil {
		return opcode, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", opcode, err)
	}
	return opcode + " " + string(body), nil
}

// New builds a frame ready for the send queue
func New(opcode string, payload any) (Frame, error) {
	f := Frame{Opcode: strings.ToUpper(opcode)}
	if payload == nil {
		return f, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", f.Opcode, err)
	}
	f.Payload = body
	return f, nil
}

// MustNew is New for payload types that always marshal
func MustNew(opcode string, payload any) Frame {
	f, err := New(opcode, payload)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Frame) String() string {
	if len(f.Payload) == 0 {
		return f.Opcode
	}
	return f.Opcode + " " + string(f.Payload)
}

func (f Frame) HasPayload() bool {
	return len(f.Payload) > 0
}

// Unmarshal decodes the payload into v and unescapes the HTML entities the
// server applies to every string field.
func (f Frame) Unmarshal(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrMalformedFrame, f.Opcode)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, f.Opcode, err)
	}
	if u, ok := v.(unescaper); ok {
		u.unescape()
	}
	return nil
}

// Field returns a single top-level field, decoded as a generic value
func (f Frame) Field(name string) (any, bool) {
	if len(f.Payload) == 0 {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(f.Payload, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}

type unescaper interface {
	unescape()
}

func unescape(s *string) {
	*s = html.UnescapeString(*s)
}
