package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// TimeoutPolicy selects the connection and overall budgets for one call.
type TimeoutPolicy struct {
	Connect time.Duration
	Overall time.Duration
}

// DefaultTimeouts is the budget for ordinary request sizes.
func DefaultTimeouts() TimeoutPolicy {
	return TimeoutPolicy{Connect: 10 * time.Second, Overall: 30 * time.Second}
}

// ExtendedTimeouts is the budget for large payloads, where providers may
// legitimately take minutes to answer.
func ExtendedTimeouts() TimeoutPolicy {
	return TimeoutPolicy{Connect: 10 * time.Second, Overall: 500 * time.Second}
}

// largePayloadThreshold is the request size above which PolicyFor switches
// to the extended budget.
const largePayloadThreshold = 32 * 1024

// PolicyFor picks a timeout policy from the estimated request size.
func PolicyFor(bodyBytes int) TimeoutPolicy {
	if bodyBytes > largePayloadThreshold {
		return ExtendedTimeouts()
	}
	return DefaultTimeouts()
}

// Options configures an Executor.
type Options struct {
	// MaxRetries is the number of additional attempts after a
	// connection-level failure. HTTP errors are never retried.
	MaxRetries int

	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration

	// Logger receives per-attempt diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Executor wraps a Transport with timeout policy, bounded retry on transient
// connection failure, and cancellation classification. One Executor call
// returns exactly one Outcome.
type Executor struct {
	transport  transport.Transport
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewExecutor creates an Executor over the given transport.
func NewExecutor(t transport.Transport, opts Options) *Executor {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{
		transport:  t,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		tracer:     otel.Tracer("github.com/omer-faruq/assistant-core/pkg/dispatch"),
	}
}

// Transport returns the underlying transport, for callers that need the
// streaming interface.
func (e *Executor) Transport() transport.Transport {
	return e.transport
}

// Execute performs the request under the given timeout policy.
//
// Connection errors are retried up to MaxRetries times with a fixed delay.
// HTTP errors are returned immediately: some are legitimate answers (e.g.
// validation failures) that retries cannot fix, and their interpretation
// belongs to the adapter. Cancellation is observed before dispatch and
// during the blocking wait, and aborts the in-flight transport call.
func (e *Executor) Execute(ctx context.Context, req transport.Request, policy TimeoutPolicy) transport.Outcome {
	ctx, span := e.tracer.Start(ctx, "dispatch.execute",
		trace.WithAttributes(
			attribute.String("http.url", transport.RedactURL(req.URL)),
			attribute.Int("request.bytes", len(req.Body)),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled before dispatch")
		return transport.Cancelled()
	}

	if req.ConnectTimeout == 0 {
		req.ConnectTimeout = policy.Connect
	}
	if req.OverallTimeout == 0 {
		req.OverallTimeout = policy.Overall
	}

	attempt := 0
	operation := func() (transport.Outcome, error) {
		attempt++
		out := e.transport.Send(ctx, req)
		if out.Kind == transport.KindConnectionError {
			e.logger.Warn("request failed with connection error",
				"url", transport.RedactURL(req.URL),
				"attempt", attempt,
				"max_attempts", e.maxRetries+1,
				"detail", out.Detail,
			)
			return out, errors.New(out.Detail)
		}
		return out, nil
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(e.retryDelay)),
		backoff.WithMaxTries(uint(e.maxRetries)+1),
	)
	if err != nil {
		if ctx.Err() == context.Canceled {
			span.SetStatus(codes.Error, "cancelled")
			return transport.Cancelled()
		}
		span.SetStatus(codes.Error, err.Error())
		return transport.ConnectionError(err.Error())
	}

	span.SetAttributes(attribute.String("outcome", out.Kind.String()))
	if out.Kind == transport.KindHTTPError {
		span.SetAttributes(attribute.Int("http.status_code", out.StatusCode))
	}
	return out
}
