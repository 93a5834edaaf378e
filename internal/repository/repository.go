package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
)

// ErrDuplicateKey is wrapped by every DuplicateKeyError.
var ErrDuplicateKey = errors.New("duplicate key")

// Fields that carry a uniqueness constraint.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// DuplicateKeyError reports an insert rejected by a unique index.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// FindOptions shapes a lookup.
type FindOptions struct {
	// ExcludePassword leaves User.PasswordHash empty.
	ExcludePassword bool
	// PopulateRelations loads summaries of followers and following.
	PopulateRelations bool
}

// UserRepository is the identity store. Username and email uniqueness is
// enforced by the store itself, so Insert is authoritative even when
// callers pre-check. Lookups return an error wrapping apperrors.ErrNotFound
// when no user matches.
type UserRepository interface {
	// FindByUsername looks up a user by normalized username.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByEmail looks up a user by exact email.
	FindByEmail(ctx context.Context, email string, opts FindOptions) (*domain.User, error)

	// FindByID looks up a user by store-assigned id.
	FindByID(ctx context.Context, id string, opts FindOptions) (*domain.User, error)

	// Insert stores u and returns its new id. The id and timestamps are
	// also written back to u. A unique-index violation returns a
	// *DuplicateKeyError.
	Insert(ctx context.Context, u *domain.User) (string, error)
}
