package providers

import (
	"bufio"
	"io"
	"strings"
)

// SSEScanner reads server-sent events from a response body. It surfaces one
// data payload per Next call, remembering the most recent event name.
// Comment lines and blank separators are skipped.
type SSEScanner struct {
	scanner *bufio.Scanner
	data    []byte
	event   string
}

// NewSSEScanner wraps r. The reader is not closed by the scanner.
func NewSSEScanner(r io.Reader) *SSEScanner {
	s := bufio.NewScanner(r)
	// Single deltas are small but providers occasionally ship large tool
	// payloads in one event.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEScanner{scanner: s}
}

// Next advances to the next data-bearing line. It returns false at end of
// stream or on a read error (see Err).
func (s *SSEScanner) Next() bool {
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		switch {
		case line == "" || strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event:"):
			s.event = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			s.data = []byte(strings.TrimSpace(line[len("data:"):]))
			return true
		}
	}
	return false
}

// Data returns the current event's data payload.
func (s *SSEScanner) Data() []byte { return s.data }

// Event returns the most recent event name, or "" if none was sent.
func (s *SSEScanner) Event() string { return s.event }

// Err returns the first read error, or nil on clean end of stream.
func (s *SSEScanner) Err() error { return s.scanner.Err() }
