// Package middleware provides the HTTP middleware stack for the telepathy
// server: panic recovery, request IDs, CORS, body-size limiting, and request
// logging. Middleware uses the standard http.Handler wrapper signature and is
// applied at the server handler level so it covers every mounted route.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
