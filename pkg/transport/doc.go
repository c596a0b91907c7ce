// Package transport executes single outbound HTTP POSTs and reports each
// call as a uniform tri-state-plus-cancellation Outcome: Success, HTTPError,
// ConnectionError, or Cancelled.
//
// Two implementations sit behind the Transport interface:
//
//   - Native: the platform TLS stack via net/http, with connection pooling.
//     It also implements StreamTransport for incremental response bodies.
//   - Exec: a fallback that shells out to curl through uniquely-named
//     temporary files, for hosts where the native TLS stack is unreliable.
//     Both scratch files are removed on every exit path.
//
// A status >= 400 response is always an HTTPError carrying the raw body for
// provider-specific decoding; it is never conflated with a connection
// failure. Anything the transports log goes through RedactHeaders and
// RedactURL so credential material never reaches the log sink.
package transport
