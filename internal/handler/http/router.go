package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/auth"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/service"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/health"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/middleware"
)

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authService *service.AuthService,
	tokens *auth.TokenIssuer,
	cookie auth.CookiePolicy,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
	serviceName string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(authService, cookie, logger)
	userHandler := NewUserHandler(authService, logger)

	// Only access tokens are accepted as bearer credentials.
	verifyAccess := func(token string) (string, error) {
		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/refresh_token", authHandler.RefreshToken)

		r.With(middleware.Bearer(verifyAccess)).Get("/users/me", userHandler.Me)
	})

	return r
}
