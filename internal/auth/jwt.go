package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "social-auth"

// Verification failures. Every error returned by Verify wraps exactly one.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

// TokenKind selects which secret and lifetime a token uses.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims is the payload of both token kinds: the user id and nothing else.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens. Each kind has
// its own secret, so a token of one kind never verifies as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates an issuer. Secrets are copied and never exposed.
func NewTokenIssuer(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cpy := *t
	cpy.now = now
	return &cpy
}

func (t *TokenIssuer) params(kind TokenKind) ([]byte, time.Duration) {
	if kind == RefreshToken {
		return t.refreshSecret, t.refreshExpiry
	}
	return t.accessSecret, t.accessExpiry
}

// Issue signs a token of the given kind for userID.
func (t *TokenIssuer) Issue(kind TokenKind, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("sign %s token: empty user id", kind)
	}
	secret, expiry := t.params(kind)

	now := t.now().UTC()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// IssueAccess signs an access token for userID.
func (t *TokenIssuer) IssueAccess(userID string) (string, error) {
	return t.Issue(AccessToken, userID)
}

// IssueRefresh signs a refresh token for userID.
func (t *TokenIssuer) IssueRefresh(userID string) (string, error) {
	return t.Issue(RefreshToken, userID)
}

// Verify checks the signature and expiry of a token of the given kind.
func (t *TokenIssuer) Verify(kind TokenKind, token string) (*Claims, error) {
	secret, _ := t.params(kind)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, classify(kind, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("verify %s token: %w", kind, ErrTokenInvalid)
	}
	return claims, nil
}

// VerifyAccess verifies an access token.
func (t *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return t.Verify(AccessToken, token)
}

// VerifyRefresh verifies a refresh token.
func (t *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return t.Verify(RefreshToken, token)
}

func classify(kind TokenKind, err error) error {
	var kindErr error
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		kindErr = ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		kindErr = ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		kindErr = ErrTokenMalformed
	default:
		kindErr = ErrTokenInvalid
	}
	return fmt.Errorf("verify %s token: %w: %w", kind, kindErr, err)
}
