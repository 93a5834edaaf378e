package http

import (
	"log/slog"
	"net/http"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/service"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/httputil"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/middleware"
)

// UserHandler serves the authenticated caller's own record.
type UserHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// UserResponse wraps a single user view.
type UserResponse struct {
	User domain.UserView `json:"user"`
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UserResponse{User: user.View()})
}
