package http

import (
	"log/slog"
	"net/http"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/auth"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/service"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/httputil"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/validator"
)

// Success messages. Existing clients match on them.
const (
	msgRegistered = "Register Successful!!!"
	msgLoggedIn   = "Login Successful!!!"
	msgLoggedOut  = "Logged out!!!"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookie  auth.CookiePolicy
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookie auth.CookiePolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration. Required
// fields and length limits are enforced by the service so that clients get
// the field-specific reason codes.
type RegisterRequest struct {
	FullName string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password"`
	Gender   string `json:"gender" validate:"omitempty,max=20"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password"`
}

// --- Response types ---

// AuthResponse carries an access token and the caller's view.
type AuthResponse struct {
	Message     string          `json:"msg,omitempty"`
	AccessToken string          `json:"access_token"`
	User        domain.UserView `json:"user"`
}

// --- Handlers ---

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookie.Set(w, res.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, AuthResponse{
		Message:     msgRegistered,
		AccessToken: res.AccessToken,
		User:        res.User.View(),
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookie.Set(w, res.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, AuthResponse{
		Message:     msgLoggedIn,
		AccessToken: res.AccessToken,
		User:        res.User.View(),
	})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context())
	h.cookie.Clear(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: msgLoggedOut})
}

// RefreshToken handles POST /api/refresh_token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context(), h.cookie.Read(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AuthResponse{
		AccessToken: res.AccessToken,
		User:        res.User.View(),
	})
}
