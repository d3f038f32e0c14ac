// Package middleware provides the HTTP middleware stack for the status API:
// correlation IDs, panic recovery, optional bearer-key auth, and per-remote
// rate limiting.
package middleware

import "net/http"

// Option applies one middleware layer to a handler.
type Option func(http.Handler) http.Handler

// Apply chains options around handler, first option outermost.
func Apply(handler http.Handler, options ...Option) http.Handler {
	for i := len(options) - 1; i >= 0; i-- {
		handler = options[i](handler)
	}

	return handler
}
