package transport

import (
	"context"
	"io"
	"time"
)

// Transport executes a single HTTP POST and reports what happened as an
// Outcome. Implementations must never panic on malformed responses and must
// never write credential material to logs.
//
// Two implementations exist: Native (the platform TLS stack via net/http)
// and Exec (an external curl process, for hosts where the native stack is
// known unreliable). Both are safe for concurrent use.
type Transport interface {
	// Send posts req.Body to req.URL and returns exactly one Outcome.
	// Cancellation of ctx aborts the in-flight call and yields a
	// Cancelled outcome.
	Send(ctx context.Context, req Request) Outcome
}

// StreamTransport is implemented by transports that can expose the response
// body incrementally instead of buffering it. The exec fallback cannot;
// callers that need streaming must check for this interface and fall back
// to a buffered Send.
type StreamTransport interface {
	Transport

	// OpenStream performs the POST and, on success, returns the response
	// body as a reader the caller must close. On any failure the reader is
	// nil and the Outcome describes the error (HTTP error bodies are read
	// in full before returning).
	OpenStream(ctx context.Context, req Request) (io.ReadCloser, Outcome)
}

// Request describes one outbound HTTP POST.
type Request struct {
	// URL is the full endpoint URL. Query parameters may carry credentials
	// (some providers embed the API key there); logging must go through
	// RedactURL.
	URL string

	// Headers are sent verbatim. Content-Type defaults to application/json
	// when unset and a body is present.
	Headers map[string]string

	// Body is the serialized request payload.
	Body []byte

	// ConnectTimeout bounds connection establishment (dial + TLS
	// handshake). Zero means the transport's configured default.
	ConnectTimeout time.Duration

	// OverallTimeout bounds the whole call including the response body.
	// Zero means no deadline beyond ctx.
	OverallTimeout time.Duration
}

// Kind identifies which variant of an Outcome holds.
type Kind int

const (
	// KindSuccess: 2xx response, Body holds the response payload.
	KindSuccess Kind = iota

	// KindHTTPError: the server answered with status >= 400. StatusCode
	// and Body are set; the body is kept raw for provider-specific error
	// decoding.
	KindHTTPError

	// KindConnectionError: DNS, dial, TLS, or read failure, a timeout, or
	// a fallback-process invocation failure. Detail carries the low-level
	// description.
	KindConnectionError

	// KindCancelled: the caller's context was cancelled before or during
	// the call.
	KindCancelled
)

// String returns a short name for the kind, used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindConnectionError:
		return "connection_error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the uniform result of one Send. Exactly one variant holds per
// call; callers switch on Kind and must handle all four.
type Outcome struct {
	Kind       Kind
	Body       []byte // Success, HTTPError
	StatusCode int    // HTTPError
	Detail     string // ConnectionError
}

// Success builds a successful outcome carrying the response body.
func Success(body []byte) Outcome {
	return Outcome{Kind: KindSuccess, Body: body}
}

// HTTPError builds an outcome for a status >= 400 response. The raw body is
// preserved for adapter-level error decoding.
func HTTPError(status int, body []byte) Outcome {
	return Outcome{Kind: KindHTTPError, StatusCode: status, Body: body}
}

// ConnectionError builds an outcome for a local or network-level failure.
func ConnectionError(detail string) Outcome {
	return Outcome{Kind: KindConnectionError, Detail: detail}
}

// Cancelled builds an outcome for a caller-cancelled call.
func Cancelled() Outcome {
	return Outcome{Kind: KindCancelled}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }
