package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader parses events from a stream written by Writer or any other SSE
// server.
type Reader struct {
	scanner *bufio.Scanner

	current Event
	data    []string
	pending bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next blocks until a complete event is available and returns it. It
// returns nil, nil when the source is exhausted. Comments are skipped.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if r.pending {
				return r.take(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line.
	if r.pending {
		return r.take(), nil
	}
	return nil, nil
}

// parseLine accumulates a "field:value" line. The first space after the
// colon is optional and stripped.
func (r *Reader) parseLine(line string) {
	field, value, ok := strings.Cut(line, ":")
	if ok {
		value = strings.TrimPrefix(value, " ")
	} else {
		field = line
	}

	switch field {
	case "data":
		r.data = append(r.data, value)
	case "event":
		r.current.Type = value
	case "id":
		r.current.ID = value
	default:
		// "retry" and unknown fields are ignored.
		return
	}
	r.pending = true
}

func (r *Reader) take() *Event {
	ev := r.current
	ev.Data = strings.Join(r.data, "\n")
	r.current = Event{}
	r.data = nil
	r.pending = false
	return &ev
}
