// Package tracing configures OpenTelemetry span export over OTLP gRPC.
package tracing
