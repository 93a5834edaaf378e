package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/httputil"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

// Recovery turns a panic anywhere below it into a generic 500 response.
// It is the only place panics are caught.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.FromContext(r.Context(), l).ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
					Message:   "an internal error occurred",
					Code:      apperrors.CodeInternal,
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
