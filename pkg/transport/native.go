package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// NativeOptions configures the native HTTP transport.
type NativeOptions struct {
	// ConnectTimeout is the default dial + TLS handshake budget used when a
	// request does not carry its own.
	ConnectTimeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Native executes requests through the platform TLS stack (net/http) with
// connection pooling. It is the default Transport on hosts with a working
// native TLS implementation.
type Native struct {
	opts   NativeOptions
	client *http.Client
	logger *slog.Logger
}

// NewNative creates a native transport with connection pooling.
func NewNative(opts NativeOptions, logger *slog.Logger) *Native {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 100
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = 10
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Native{
		opts:   opts,
		client: newClient(opts, opts.ConnectTimeout),
		logger: logger,
	}
}

// newClient builds an http.Client for the given connect timeout.
func newClient(opts NativeOptions, connectTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConns:        opts.MaxIdleConns,
			MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
			IdleConnTimeout:     opts.IdleConnTimeout,
			ForceAttemptHTTP2:   true,
		},
	}
}

// clientFor returns the pooled client, or a one-off client when the request
// overrides the connect timeout.
func (n *Native) clientFor(req Request) *http.Client {
	if req.ConnectTimeout == 0 || req.ConnectTimeout == n.opts.ConnectTimeout {
		return n.client
	}
	return newClient(n.opts, req.ConnectTimeout)
}

// Send implements Transport.
func (n *Native) Send(ctx context.Context, req Request) Outcome {
	body, outcome := n.do(ctx, req)
	if body == nil {
		return outcome
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return n.classifyErr(ctx, err)
	}
	return Success(payload)
}

// OpenStream implements StreamTransport. The returned reader is the raw
// response body; the caller owns closing it.
func (n *Native) OpenStream(ctx context.Context, req Request) (io.ReadCloser, Outcome) {
	return n.do(ctx, req)
}

// do performs the POST and classifies everything except a successful body
// read. On success it returns the open body with a success outcome whose
// Body is nil.
func (n *Native) do(ctx context.Context, req Request) (io.ReadCloser, Outcome) {
	if req.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.OverallTimeout)
		// The body outlives this function on the streaming path; tie the
		// deadline to the response body instead of deferring cancel here.
		return n.doWithCancel(ctx, cancel, req)
	}
	return n.doWithCancel(ctx, nil, req)
}

func (n *Native) doWithCancel(ctx context.Context, cancel context.CancelFunc, req Request) (io.ReadCloser, Outcome) {
	release := func() {
		if cancel != nil {
			cancel()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		release()
		return nil, ConnectionError("create request: " + err.Error())
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Content-Type") == "" && len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	n.logger.Debug("sending request",
		"url", RedactURL(req.URL),
		"headers", RedactHeaders(req.Headers),
		"body_bytes", len(req.Body),
	)

	resp, err := n.clientFor(req).Do(httpReq)
	if err != nil {
		release()
		return nil, n.classifyErr(ctx, err)
	}

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		release()
		return nil, HTTPError(resp.StatusCode, errBody)
	}

	return &releasingBody{ReadCloser: resp.Body, release: release}, Success(nil)
}

// classifyErr separates caller cancellation from network failure. A deadline
// struck by OverallTimeout counts as a connection error (transient, may be
// retried); an explicit caller cancel is Cancelled.
func (n *Native) classifyErr(ctx context.Context, err error) Outcome {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return Cancelled()
	}
	return ConnectionError(err.Error())
}

// releasingBody releases the request's timeout context when the body closes.
type releasingBody struct {
	io.ReadCloser
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return err
}
