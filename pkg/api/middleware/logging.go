package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// Logging stores a request-scoped logger in the context and logs each request
// once it completes. Server errors are logged at error level, client errors
// at warn, everything else at debug.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger
			if id := GetRequestID(r); id != "" {
				reqLogger = logger.With(logging.RequestID(id))
			}
			r = r.WithContext(logging.NewContext(r.Context(), reqLogger))

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", sw.status),
				logging.Int("bytes", sw.written),
				logging.Latency(time.Since(start)),
			}
			switch {
			case sw.status >= 500:
				reqLogger.Error("request failed", fields...)
			case sw.status >= 400:
				reqLogger.Warn("request rejected", fields...)
			default:
				reqLogger.Debug("request served", fields...)
			}
		})
	}
}
