package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/httputil"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// TokenVerifier checks a bearer token and returns the user id it was issued
// for.
type TokenVerifier func(token string) (string, error)

// Bearer authenticates requests with an `Authorization: Bearer <token>`
// header and stores the caller's id in the context.
func Bearer(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, r, apperrors.Session(apperrors.CodeMissingToken, "Please login now"), nil)
				return
			}

			userID, err := verify(token)
			if err != nil || userID == "" {
				httputil.WriteError(w, r, apperrors.Session(apperrors.CodeInvalidSession, "Invalid or expired access token"), nil)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = logger.WithUserID(ctx, userID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx, nil).With(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserIDFromContext returns the id stored by Bearer, or "".
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
