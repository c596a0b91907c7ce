package providers

import (
	"context"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Adapter is the interface every provider variant implements. It translates
// the canonical message list into the provider's wire shape, dispatches the
// request, and parses the response into plain text or one typed error from
// this package. No provider-specific structure escapes the adapter boundary.
//
// All methods accept a context.Context for cancellation. A cancelled context
// yields ErrCancelled, never a partial result.
type Adapter interface {
	// Query sends the conversation and blocks for the normalized answer.
	// Exactly one of text and err is meaningful: non-empty text with a nil
	// error, or an error with empty text.
	Query(ctx context.Context, messages []Message) (string, error)

	// QueryStream dispatches the conversation off the caller's path.
	// Decoded content deltas are delivered through onChunk in arrival
	// order, each exactly once, all before the handle resolves. The
	// returned handle exposes cancellation and the final result.
	QueryStream(ctx context.Context, messages []Message, onChunk func(delta string)) (*QueryHandle, error)

	// HealthCheck verifies the provider endpoint is reachable. Any HTTP
	// response counts as reachable; only connection-level failures are
	// reported as errors.
	HealthCheck(ctx context.Context) error

	// Name returns the configured instance name.
	Name() string

	// Type returns the adapter variant (openai, anthropic, gemini, qianfan).
	Type() string

	// Settings returns the adapter's configuration.
	Settings() Settings

	// Close releases the adapter's resources. The adapter must not be used
	// after Close.
	Close() error
}

// Ask routes one query by the adapter's settings: streaming settings go
// through QueryStream and block for the accumulated text, everything else
// goes through Query. It is the uniform host-facing surface.
func Ask(ctx context.Context, a Adapter, messages []Message, onChunk func(delta string)) (string, error) {
	if !a.Settings().Stream {
		return a.Query(ctx, messages)
	}
	handle, err := a.QueryStream(ctx, messages, onChunk)
	if err != nil {
		return "", err
	}
	return handle.Wait()
}

// QueryHandle is the caller's grip on one background query.
type QueryHandle struct {
	task   *dispatch.Task
	finish func(transport.Outcome) (string, error)
}

// NewQueryHandle wraps a background task with the adapter's outcome mapper.
func NewQueryHandle(task *dispatch.Task, finish func(transport.Outcome) (string, error)) *QueryHandle {
	return &QueryHandle{task: task, finish: finish}
}

// Cancel aborts the query. Idempotent; after Cancel the handle resolves to
// ErrCancelled and no further chunks are delivered.
func (h *QueryHandle) Cancel() {
	h.task.Cancel()
}

// Wait blocks until the query resolves and returns the accumulated text or
// the mapped error.
func (h *QueryHandle) Wait() (string, error) {
	return h.finish(h.task.Wait())
}

// TaskID returns the background task identifier, for log correlation.
func (h *QueryHandle) TaskID() string {
	return h.task.ID()
}

// Resolve maps a transport outcome to the adapter's canonical result.
// parse decodes a success body; decodeHTTP interprets a non-2xx body,
// typically trying the provider's error object before falling back to a
// plain HTTPError.
func Resolve(provider string, out transport.Outcome, parse func([]byte) (string, error), decodeHTTP func(int, []byte) error) (string, error) {
	switch out.Kind {
	case transport.KindSuccess:
		return parse(out.Body)
	case transport.KindHTTPError:
		return "", decodeHTTP(out.StatusCode, out.Body)
	case transport.KindConnectionError:
		return "", &ConnectionError{Provider: provider, Detail: out.Detail}
	case transport.KindCancelled:
		return "", ErrCancelled
	default:
		return "", &ConnectionError{Provider: provider, Detail: "unknown outcome"}
	}
}

// Health is a snapshot of an adapter's reachability state.
type Health struct {
	Healthy             bool
	LastCheck           time.Time
	ConsecutiveFailures int
	LastError           string
}
