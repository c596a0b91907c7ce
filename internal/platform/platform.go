// Package platform probes the host and selects the HTTP transport: the
// native TLS stack where it works, the external curl client where it is
// known unreliable or explicitly requested.
package platform

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/omer-faruq/assistant-core/pkg/transport"
)

// Capabilities describes what the host can do.
type Capabilities struct {
	// NativeTLS reports whether the platform TLS stack is trusted here.
	NativeTLS bool

	// CurlPath is the resolved curl binary, empty when none was found.
	CurlPath string

	OS   string
	Arch string
}

// Detect probes the host. ASSISTANT_FORCE_EXEC_TRANSPORT=1 marks the native
// stack untrusted, for hosts where TLS handshakes are known to fail in ways
// a probe cannot see.
func Detect() Capabilities {
	caps := Capabilities{
		NativeTLS: true,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if os.Getenv("ASSISTANT_FORCE_EXEC_TRANSPORT") == "1" {
		caps.NativeTLS = false
	}
	if path, err := exec.LookPath("curl"); err == nil {
		caps.CurlPath = path
	}
	return caps
}

// Options tunes transport construction.
type Options struct {
	// Mode is auto, native or exec. auto follows the capability probe.
	Mode string

	// CurlPath overrides the probed curl location for the exec transport.
	CurlPath string

	// ConnectTimeout is the default dial budget for either transport.
	ConnectTimeout time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewTransport builds the transport the host should use.
func NewTransport(opts Options) (transport.Transport, error) {
	caps := Detect()

	mode := opts.Mode
	if mode == "" {
		mode = "auto"
	}
	if mode == "auto" {
		if caps.NativeTLS {
			mode = "native"
		} else {
			mode = "exec"
		}
	}

	switch mode {
	case "native":
		return transport.NewNative(transport.NativeOptions{
			ConnectTimeout: opts.ConnectTimeout,
		}, opts.Logger), nil
	case "exec":
		curlPath := opts.CurlPath
		if curlPath == "" {
			curlPath = caps.CurlPath
		}
		if curlPath == "" {
			return nil, fmt.Errorf("exec transport selected but no curl binary found on PATH")
		}
		return transport.NewExec(transport.ExecOptions{
			CurlPath:       curlPath,
			ConnectTimeout: opts.ConnectTimeout,
		}, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown transport mode %q", opts.Mode)
	}
}
