// Package middleware provides the HTTP middleware chain of the wayfinder API.
//
// The package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - logging.go: Request-scoped structured logging
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - security_headers.go: Response hardening headers
//   - body_limit.go: Request body size limiting middleware
//   - request_id.go: Request ID generation and tracking middleware
//   - metrics.go: HTTP metrics collection middleware
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler.
// Chain applies them so the first one listed is outermost:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID(),
//		middleware.Logging(logger),
//		middleware.PanicRecovery(logger),
//	)
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with mws, the first one ending up outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
