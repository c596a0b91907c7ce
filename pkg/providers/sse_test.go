package providers

import (
	"strings"
	"testing"
)

func TestSSEScanner(t *testing.T) {
	stream := ": keep-alive comment\r\n" +
		"event: message_start\r\n" +
		"data: {\"a\":1}\r\n" +
		"\r\n" +
		"data: {\"b\":2}\n" +
		"\n" +
		"event: done\n" +
		"data: [DONE]\n"

	s := NewSSEScanner(strings.NewReader(stream))

	var got []string
	var events []string
	for s.Next() {
		got = append(got, string(s.Data()))
		events = append(events, s.Event())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}

	want := []string{`{"a":1}`, `{"b":2}`, "[DONE]"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
	if events[0] != "message_start" {
		t.Errorf("first event name = %q, want message_start", events[0])
	}
	if events[2] != "done" {
		t.Errorf("last event name = %q, want done", events[2])
	}
}

func TestSSEScannerEmptyStream(t *testing.T) {
	s := NewSSEScanner(strings.NewReader(""))
	if s.Next() {
		t.Error("Next() = true on empty stream")
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v on empty stream", s.Err())
	}
}
