// Package dispatch layers request execution policy over a transport.
//
// Executor adds timeout selection, bounded constant-delay retry on
// connection-level failures, and cancellation classification; HTTP-level
// failures pass through untouched for adapter interpretation. Runner moves
// an Executor call off the caller's path, delivering incremental chunks and
// exactly one final outcome per task, with idempotent mid-flight
// cancellation.
package dispatch
