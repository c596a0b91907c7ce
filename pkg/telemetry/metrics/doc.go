// Package metrics exposes Prometheus instrumentation for provider
// request traffic, token refreshes and health state.
package metrics
