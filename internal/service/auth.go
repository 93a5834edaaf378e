package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/auth"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/event"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/metrics"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/password"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/repository"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/throttle"
	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

// Client-facing messages.
const (
	msgFullNameRequired = "Please add your full name"
	msgFullNameTooLong  = "Your full name is up to 25 characters long"
	msgUsernameRequired = "Please add your user name"
	msgUsernameTooLong  = "Your user name is up to 25 characters long"
	msgEmailRequired    = "Please add your email"
	msgUsernameTaken    = "This username already exists"
	msgEmailTaken       = "This email already exists"
	msgPasswordTooShort = "Password must be at least six characters"
	msgPasswordTooLong  = "Password must be at most 72 bytes"
	msgEmailNotFound    = "This email doesn't exist"
	msgWrongPassword    = "Password is incorrect"
	msgLoginNow         = "Please login now"
	msgUserNotFound     = "This user doesn't exist"
	msgTooManyAttempts  = "Too many failed login attempts, please try again later"
)

// Operation labels for metrics.
const (
	opRegister = "register"
	opLogin    = "login"
	opLogout   = "logout"
	opRefresh  = "refresh"
)

// AuthService implements registration, login, logout and access-token
// renewal. It holds no per-request state and is safe for concurrent use.
type AuthService struct {
	users    repository.UserRepository
	hasher   *password.Hasher
	tokens   *auth.TokenIssuer
	throttle *throttle.Limiter
	producer *event.Producer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewAuthService creates a new auth service. throttle, producer and m may be
// nil.
func NewAuthService(
	users repository.UserRepository,
	hasher *password.Hasher,
	tokens *auth.TokenIssuer,
	throttle *throttle.Limiter,
	producer *event.Producer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		producer: producer,
		metrics:  m,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
	Gender   string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful Register, Login or Refresh.
// RefreshToken is empty after Refresh, since refresh tokens are not rotated.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

func (s *AuthService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// observe records the outcome of op. Classified client errors count as
// rejected; everything else is an error.
func (s *AuthService) observe(op string, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	case apperrors.KindOf(err) == apperrors.ErrInternal:
		s.metrics.ObserveOperation(op, metrics.OutcomeError)
	default:
		s.metrics.ObserveOperation(op, metrics.OutcomeRejected)
	}
}

func validateRegister(in *RegisterInput) error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = domain.NormalizeUsername(in.Username)
	in.Email = domain.NormalizeEmail(in.Email)
	in.Gender = strings.TrimSpace(in.Gender)

	switch {
	case in.FullName == "":
		return apperrors.Validation(apperrors.CodeFullNameRequired, msgFullNameRequired)
	case domain.CharCount(in.FullName) > domain.MaxFullNameLength:
		return apperrors.Validation(apperrors.CodeFullNameTooLong, msgFullNameTooLong)
	case in.Username == "":
		return apperrors.Validation(apperrors.CodeUsernameRequired, msgUsernameRequired)
	case domain.CharCount(in.Username) > domain.MaxUsernameLength:
		return apperrors.Validation(apperrors.CodeUsernameTooLong, msgUsernameTooLong)
	case in.Email == "":
		return apperrors.Validation(apperrors.CodeEmailRequired, msgEmailRequired)
	}
	return nil
}

func validatePassword(plaintext string) error {
	if domain.CharCount(plaintext) < domain.MinPasswordLength {
		return apperrors.Validation(apperrors.CodePasswordTooShort, msgPasswordTooShort)
	}
	if len(plaintext) > password.MaxLength {
		return apperrors.Validation(apperrors.CodePasswordTooLong, msgPasswordTooLong)
	}
	return nil
}

// Register creates an account and returns a token pair bound to the
// store-assigned id. A failed registration stores nothing.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (res *AuthResult, err error) {
	defer func() { s.observe(opRegister, err) }()

	if err := validateRegister(&input); err != nil {
		return nil, err
	}

	// Fast-path checks. The store's unique indexes remain authoritative.
	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.Conflict(apperrors.CodeUsernameTaken, msgUsernameTaken)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email, repository.FindOptions{ExcludePassword: true}); err == nil {
		return nil, apperrors.Conflict(apperrors.CodeEmailTaken, msgEmailTaken)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(input.FullName, input.Username, input.Email, hash, input.Gender)
	id, err := s.users.Insert(ctx, user)
	if err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			switch dup.Field {
			case repository.FieldEmail:
				return nil, apperrors.Conflict(apperrors.CodeEmailTaken, msgEmailTaken)
			case repository.FieldUsername:
				return nil, apperrors.Conflict(apperrors.CodeUsernameTaken, msgUsernameTaken)
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.ID = id

	res, err = s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "user registered", slog.String("user_id", id))
	return res, nil
}

// Login verifies credentials and returns a token pair. Followers and
// following are expanded to summaries.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (res *AuthResult, err error) {
	defer func() { s.observe(opLogin, err) }()

	email := domain.NormalizeEmail(input.Email)

	if !s.throttle.Reserve(ctx, email) {
		s.metrics.IncThrottled()
		s.log(ctx).WarnContext(ctx, "login throttled")
		return nil, apperrors.RateLimited(msgTooManyAttempts)
	}

	// The reserved attempt is the failure count for credential errors.
	// Infrastructure errors hand it back.
	user, err := s.users.FindByEmail(ctx, email, repository.FindOptions{PopulateRelations: true})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Authentication(apperrors.CodeUserNotFound, msgEmailNotFound)
		}
		s.throttle.Release(ctx, email)
		return nil, fmt.Errorf("find user: %w", err)
	}

	match, err := s.hasher.Verify(ctx, input.Password, user.PasswordHash)
	if err != nil {
		s.throttle.Release(ctx, email)
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, apperrors.Authentication(apperrors.CodeWrongPassword, msgWrongPassword)
	}
	s.throttle.Reset(ctx, email)

	res, err = s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishUserLoggedIn(ctx, user.ID); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish user.logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return res, nil
}

// Logout always succeeds. Refresh tokens are stateless, so ending the
// session is the caller clearing the refresh cookie.
func (s *AuthService) Logout(ctx context.Context) {
	s.observe(opLogout, nil)
	s.log(ctx).InfoContext(ctx, "user logged out")
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *AuthResult, err error) {
	defer func() { s.observe(opRefresh, err) }()

	if refreshToken == "" {
		return nil, apperrors.Session(apperrors.CodeMissingToken, msgLoginNow)
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.log(ctx).DebugContext(ctx, "refresh token rejected", slog.String("error", err.Error()))
		return nil, apperrors.Session(apperrors.CodeInvalidSession, msgLoginNow)
	}

	user, err := s.findUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "access token renewed", slog.String("user_id", user.ID))
	return &AuthResult{AccessToken: access, User: user}, nil
}

// CurrentUser returns the user an access token was issued to.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.findUser(ctx, userID)
}

func (s *AuthService) findUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id, repository.FindOptions{ExcludePassword: true, PopulateRelations: true})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserNotFound, msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issuePair(user *domain.User) (*AuthResult, error) {
	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
