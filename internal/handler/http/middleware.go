package http

import (
	"net/http"
	"strings"

	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/httputil"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

// ContentTypeJSON rejects requests that carry a body without
// Content-Type: application/json. Bodiless requests such as logout and
// token renewal pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
					Message:   "Content-Type must be application/json",
					Code:      apperrors.CodeUnsupportedMedia,
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
