package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ExecOptions configures the external-process fallback transport.
type ExecOptions struct {
	// CurlPath is the HTTP client binary to invoke. Defaults to "curl"
	// resolved from PATH.
	CurlPath string

	// TempDir is where request/response scratch files are created.
	// Defaults to the OS temp directory.
	TempDir string

	// ConnectTimeout is the default connection budget when a request does
	// not carry its own.
	ConnectTimeout time.Duration
}

// Exec executes requests by shelling out to an external HTTP client. It is
// used on hosts where the native TLS stack is known unreliable.
//
// Each call writes the body to a uniquely-named temporary file, asks curl to
// write the response to a second one, and removes both on every exit path:
// success, HTTP error, connection failure, or cancellation.
type Exec struct {
	opts   ExecOptions
	logger *slog.Logger
}

// NewExec creates the process-fallback transport.
func NewExec(opts ExecOptions, logger *slog.Logger) *Exec {
	if opts.CurlPath == "" {
		opts.CurlPath = "curl"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{opts: opts, logger: logger}
}

// Send implements Transport.
func (e *Exec) Send(ctx context.Context, req Request) Outcome {
	if err := ctx.Err(); err != nil {
		return Cancelled()
	}

	reqFile, err := os.CreateTemp(e.opts.TempDir, "assistant-req-*.json")
	if err != nil {
		return ConnectionError("create request file: " + err.Error())
	}
	defer os.Remove(reqFile.Name())

	respFile, err := os.CreateTemp(e.opts.TempDir, "assistant-resp-*")
	if err != nil {
		reqFile.Close()
		return ConnectionError("create response file: " + err.Error())
	}
	defer os.Remove(respFile.Name())
	respFile.Close()

	if _, err := reqFile.Write(req.Body); err != nil {
		reqFile.Close()
		return ConnectionError("write request file: " + err.Error())
	}
	if err := reqFile.Close(); err != nil {
		return ConnectionError("close request file: " + err.Error())
	}

	args := e.buildArgs(req, reqFile.Name(), respFile.Name())
	e.logger.Debug("invoking fallback http client",
		"command", e.opts.CurlPath,
		"url", RedactURL(req.URL),
		"headers", RedactHeaders(req.Headers),
	)

	cmd := exec.CommandContext(ctx, e.opts.CurlPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.Canceled {
			return Cancelled()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ConnectionError("fallback client timed out")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return ConnectionError("fallback client failed: " + detail)
	}

	status, err := strconv.Atoi(strings.TrimSpace(stdout.String()))
	if err != nil {
		return ConnectionError("fallback client returned unparseable status: " + stdout.String())
	}

	body, err := os.ReadFile(respFile.Name())
	if err != nil {
		return ConnectionError("read response file: " + err.Error())
	}

	if status >= 400 {
		return HTTPError(status, body)
	}
	return Success(body)
}

// buildArgs assembles the curl invocation with equivalent method, headers,
// and timeouts. The response body goes to respPath; only the numeric status
// code is printed to stdout.
func (e *Exec) buildArgs(req Request, reqPath, respPath string) []string {
	connectTimeout := req.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = e.opts.ConnectTimeout
	}

	args := []string{
		"--silent",
		"--show-error",
		"--request", "POST",
		"--data-binary", "@" + reqPath,
		"--output", respPath,
		"--write-out", "%{http_code}",
		"--connect-timeout", strconv.Itoa(int(connectTimeout.Seconds())),
	}
	if req.OverallTimeout > 0 {
		args = append(args, "--max-time", strconv.Itoa(int(req.OverallTimeout.Seconds())))
	}

	hasContentType := false
	for key, value := range req.Headers {
		if strings.EqualFold(key, "Content-Type") {
			hasContentType = true
		}
		args = append(args, "--header", fmt.Sprintf("%s: %s", key, value))
	}
	if !hasContentType && len(req.Body) > 0 {
		args = append(args, "--header", "Content-Type: application/json")
	}

	return append(args, req.URL)
}
