package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/nm-digitalhub/sumit-gateway/pkg/httputil"
	"github.com/nm-digitalhub/sumit-gateway/pkg/logger"
)

// Recovery converts handler panics into a 500 error response using the
// standard envelope. A panic mid-charge must never take the gateway process
// down with it.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "recovered from handler panic",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
						Error: &httputil.ErrorResponse{
							Code:      "INTERNAL_ERROR",
							Message:   "an internal error occurred",
							RequestID: logger.CorrelationIDFromContext(r.Context()),
						},
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
