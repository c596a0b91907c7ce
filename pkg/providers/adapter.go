package providers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/dispatch"
	"github.com/omer-faruq/assistant-core/pkg/telemetry/metrics"
	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Deps are the shared collaborators an adapter is built with.
type Deps struct {
	Executor *dispatch.Executor
	Runner   *dispatch.Runner

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.ProviderMetrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Base carries the dispatch plumbing common to every adapter variant:
// timeout policy selection, metrics, health state, and the background
// streaming loop. Variants embed it and add their wire translation.
type Base struct {
	settings Settings
	exec     *dispatch.Executor
	runner   *dispatch.Runner
	metrics  *metrics.ProviderMetrics
	logger   *slog.Logger

	mu     sync.Mutex
	health Health
}

// NewBase builds the shared adapter core.
func NewBase(settings Settings, deps Deps) *Base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exec := deps.Executor
	if settings.MaxRetries > 0 || settings.RetryDelay > 0 {
		// Per-provider retry tuning wraps the shared transport in an
		// adapter-local executor.
		exec = dispatch.NewExecutor(exec.Transport(), dispatch.Options{
			MaxRetries: settings.MaxRetries,
			RetryDelay: settings.RetryDelay,
			Logger:     logger,
		})
	}
	return &Base{
		settings: settings,
		exec:     exec,
		runner:   deps.Runner,
		metrics:  deps.Metrics,
		logger:   logger.With("provider", settings.Name),
	}
}

// Settings returns the adapter configuration.
func (b *Base) Settings() Settings { return b.settings }

// Name returns the configured instance name.
func (b *Base) Name() string { return b.settings.Name }

// Logger returns the adapter's logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Close releases the adapter. The transport's connection pool is shared, so
// there is nothing per-adapter to tear down.
func (b *Base) Close() error { return nil }

// CanStream reports whether the underlying transport can expose a response
// body incrementally. The exec fallback cannot; adapters then request a
// buffered response and deliver it as a single chunk.
func (b *Base) CanStream() bool {
	_, ok := b.exec.Transport().(transport.StreamTransport)
	return ok
}

// policyFor picks the timeout budget for one request, honoring per-provider
// overrides from settings.
func (b *Base) policyFor(bodyBytes int) dispatch.TimeoutPolicy {
	policy := dispatch.PolicyFor(bodyBytes)
	if b.settings.ConnectTimeout > 0 {
		policy.Connect = b.settings.ConnectTimeout
	}
	if b.settings.Timeout > 0 {
		policy.Overall = b.settings.Timeout
	}
	return policy
}

// Do dispatches one synchronous request through the executor, recording
// request, latency and error metrics.
func (b *Base) Do(ctx context.Context, req transport.Request) transport.Outcome {
	b.recordRequest()
	start := time.Now()
	out := b.exec.Execute(ctx, req, b.policyFor(len(req.Body)))
	b.recordLatency(time.Since(start))
	b.recordOutcome(out)
	return out
}

// StreamSpec describes how a variant decodes its event stream.
type StreamSpec struct {
	// Extract maps one SSE data payload to a content delta. done marks the
	// provider's end-of-stream sentinel.
	Extract func(data []byte) (delta string, done bool, err error)

	// ParseFull decodes a complete buffered response body. Used when the
	// transport cannot stream; the adapter must then have requested a
	// non-streaming response.
	ParseFull func(body []byte) (string, error)

	// DecodeHTTP interprets a non-2xx response body.
	DecodeHTTP func(status int, body []byte) error
}

// StreamRequest runs req off the caller's path, decoding the provider's
// event framing and delivering content deltas through onChunk. All deltas
// arrive before the handle resolves; cancelling the handle mid-flight yields
// ErrCancelled and suppresses any further deltas.
func (b *Base) StreamRequest(ctx context.Context, req transport.Request, spec StreamSpec, onChunk func(delta string)) *QueryHandle {
	policy := b.policyFor(len(req.Body))
	if req.ConnectTimeout == 0 {
		req.ConnectTimeout = policy.Connect
	}
	if req.OverallTimeout == 0 {
		req.OverallTimeout = policy.Overall
	}

	// Written only on the task goroutine; read by finish after the outcome
	// channel synchronizes.
	var (
		text     strings.Builder
		parseErr error
	)

	st, canStream := b.exec.Transport().(transport.StreamTransport)

	fn := func(ctx context.Context, emit dispatch.ChunkFunc) transport.Outcome {
		b.recordRequest()
		start := time.Now()
		defer func() { b.recordLatency(time.Since(start)) }()

		if !canStream {
			out := b.exec.Execute(ctx, req, policy)
			if out.Kind != transport.KindSuccess {
				return out
			}
			full, err := spec.ParseFull(out.Body)
			if err != nil {
				parseErr = err
				return out
			}
			text.WriteString(full)
			emit(full)
			return transport.Success(nil)
		}

		body, out := st.OpenStream(ctx, req)
		if out.Kind != transport.KindSuccess {
			return out
		}
		defer body.Close()

		events := NewSSEScanner(body)
		for events.Next() {
			delta, done, err := spec.Extract(events.Data())
			if err != nil {
				parseErr = err
				return transport.Success(nil)
			}
			if delta != "" {
				text.WriteString(delta)
				emit(delta)
			}
			if done {
				break
			}
		}
		if err := events.Err(); err != nil {
			if ctx.Err() != nil {
				return transport.Cancelled()
			}
			return transport.ConnectionError("reading event stream: " + err.Error())
		}
		return transport.Success(nil)
	}

	task := b.runner.Run(ctx, fn, dispatch.ChunkFunc(onChunk))

	finish := func(out transport.Outcome) (string, error) {
		b.recordOutcome(out)
		if out.Kind == transport.KindSuccess && parseErr != nil {
			b.recordError("parse_error")
			return "", parseErr
		}
		return Resolve(b.settings.Name, out,
			func([]byte) (string, error) {
				if text.Len() == 0 {
					return "", &ParseError{
						Provider: b.settings.Name,
						Cause:    errors.New("stream produced no content"),
					}
				}
				return text.String(), nil
			},
			spec.DecodeHTTP,
		)
	}
	return NewQueryHandle(task, finish)
}

func (b *Base) recordRequest() {
	if b.metrics != nil {
		b.metrics.RecordRequest(b.settings.Name, b.settings.Model)
	}
}

func (b *Base) recordLatency(d time.Duration) {
	if b.metrics != nil {
		b.metrics.RecordLatency(b.settings.Name, b.settings.Model, d.Seconds())
	}
}

func (b *Base) recordOutcome(out transport.Outcome) {
	if out.Kind != transport.KindSuccess {
		b.recordError(out.Kind.String())
	}
}

func (b *Base) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(b.settings.Name, kind)
	}
}
