package sse

import (
	"errors"
	"io"
	"strings"
)

var errFieldNewline = errors.New("sse: event type and id must not contain newlines")

// Writer encodes events onto w. It does not flush; callers streaming over
// HTTP flush after each Write.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that encodes onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes ev. Multi-line data is split into one "data:" line per line.
func (w *Writer) Write(ev Event) error {
	if strings.ContainsAny(ev.Type, "\r\n") || strings.ContainsAny(ev.ID, "\r\n") {
		return errFieldNewline
	}

	var b strings.Builder
	if ev.ID != "" {
		b.WriteString("id: " + ev.ID + "\n")
	}
	if ev.Type != "" {
		b.WriteString("event: " + ev.Type + "\n")
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w.w, b.String())
	return err
}

// Comment writes a comment line. Readers ignore it, which makes it useful
// as a keep-alive.
func (w *Writer) Comment(text string) error {
	_, err := io.WriteString(w.w, ": "+strings.ReplaceAll(text, "\n", " ")+"\n\n")
	return err
}
