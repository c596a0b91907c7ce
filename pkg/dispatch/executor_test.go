package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// stubTransport returns scripted outcomes in order, repeating the last one.
type stubTransport struct {
	calls    atomic.Int32
	outcomes []transport.Outcome
	delay    time.Duration
}

func (s *stubTransport) Send(ctx context.Context, req transport.Request) transport.Outcome {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return transport.Cancelled()
		case <-time.After(s.delay):
		}
	}
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.outcomes) {
		n = len(s.outcomes) - 1
	}
	return s.outcomes[n]
}

func TestExecutor_RetriesConnectionErrors(t *testing.T) {
	stub := &stubTransport{outcomes: []transport.Outcome{
		transport.ConnectionError("refused"),
		transport.ConnectionError("refused"),
		transport.Success([]byte("ok")),
	}}

	e := NewExecutor(stub, Options{MaxRetries: 3, RetryDelay: time.Millisecond})
	out := e.Execute(context.Background(), transport.Request{URL: "https://x"}, DefaultTimeouts())

	if out.Kind != transport.KindSuccess {
		t.Fatalf("expected success after retries, got %s (%s)", out.Kind, out.Detail)
	}
	if got := stub.calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestExecutor_ExhaustedRetriesSurfaceConnectionError(t *testing.T) {
	stub := &stubTransport{outcomes: []transport.Outcome{
		transport.ConnectionError("dns failure"),
	}}

	e := NewExecutor(stub, Options{MaxRetries: 2, RetryDelay: time.Millisecond})
	out := e.Execute(context.Background(), transport.Request{URL: "https://x"}, DefaultTimeouts())

	if out.Kind != transport.KindConnectionError {
		t.Fatalf("expected connection_error, got %s", out.Kind)
	}
	if got := stub.calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestExecutor_NeverRetriesHTTPErrors(t *testing.T) {
	stub := &stubTransport{outcomes: []transport.Outcome{
		transport.HTTPError(429, []byte(`{"error":{"message":"rate limited"}}`)),
	}}

	e := NewExecutor(stub, Options{MaxRetries: 5, RetryDelay: time.Millisecond})
	out := e.Execute(context.Background(), transport.Request{URL: "https://x"}, DefaultTimeouts())

	if out.Kind != transport.KindHTTPError {
		t.Fatalf("expected http_error, got %s", out.Kind)
	}
	if out.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", out.StatusCode)
	}
	if got := stub.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt for an HTTP error, got %d", got)
	}
}

func TestExecutor_CancelledBeforeDispatch(t *testing.T) {
	stub := &stubTransport{outcomes: []transport.Outcome{transport.Success(nil)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(stub, Options{})
	out := e.Execute(ctx, transport.Request{URL: "https://x"}, DefaultTimeouts())

	if out.Kind != transport.KindCancelled {
		t.Fatalf("expected cancelled, got %s", out.Kind)
	}
	if got := stub.calls.Load(); got != 0 {
		t.Errorf("expected no attempts after pre-dispatch cancel, got %d", got)
	}
}

func TestExecutor_CancelledMidFlight(t *testing.T) {
	stub := &stubTransport{
		outcomes: []transport.Outcome{transport.Success(nil)},
		delay:    time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	e := NewExecutor(stub, Options{})
	out := e.Execute(ctx, transport.Request{URL: "https://x"}, DefaultTimeouts())

	if out.Kind != transport.KindCancelled {
		t.Fatalf("expected cancelled, got %s", out.Kind)
	}
}

func TestPolicyFor(t *testing.T) {
	if got := PolicyFor(100); got.Overall != DefaultTimeouts().Overall {
		t.Errorf("small payload should use the default budget, got %v", got.Overall)
	}
	if got := PolicyFor(largePayloadThreshold + 1); got.Overall != ExtendedTimeouts().Overall {
		t.Errorf("large payload should use the extended budget, got %v", got.Overall)
	}
}
