package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/repository"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/database"
	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
)

// Postgres error codes and constraint names this repository maps.
const (
	codeUniqueViolation   = "23505"
	codeInvalidTextRepr   = "22P02"
	constraintUsernameKey = "users_username_key"
	constraintEmailKey    = "users_email_key"
)

const userColumns = `u.id::text, u.fullname, u.username, u.email, %s, u.avatar, u.role, u.gender,
	u.mobile, u.address, u.story, u.website,
	ARRAY(SELECT f.follower_id::text FROM user_follows f WHERE f.followee_id = u.id ORDER BY f.created_at) AS followers,
	ARRAY(SELECT f.followee_id::text FROM user_follows f WHERE f.follower_id = u.id ORDER BY f.created_at) AS following,
	u.created_at, u.updated_at`

const relationsQuery = `
	SELECT 'followers' AS relation, p.id::text, p.avatar, p.username, p.fullname,
		ARRAY(SELECT x.follower_id::text FROM user_follows x WHERE x.followee_id = p.id ORDER BY x.created_at),
		ARRAY(SELECT x.followee_id::text FROM user_follows x WHERE x.follower_id = p.id ORDER BY x.created_at),
		f.created_at AS followed_at
	FROM user_follows f JOIN users p ON p.id = f.follower_id
	WHERE f.followee_id = $1
	UNION ALL
	SELECT 'following', p.id::text, p.avatar, p.username, p.fullname,
		ARRAY(SELECT x.follower_id::text FROM user_follows x WHERE x.followee_id = p.id ORDER BY x.created_at),
		ARRAY(SELECT x.followee_id::text FROM user_follows x WHERE x.follower_id = p.id ORDER BY x.created_at),
		f.created_at
	FROM user_follows f JOIN users p ON p.id = f.followee_id
	WHERE f.follower_id = $1
	ORDER BY relation, followed_at`

const insertUserQuery = `
	INSERT INTO users (fullname, username, email, password_hash, avatar, role, gender, mobile, address, story, website)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id::text, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a PostgreSQL-backed identity store. tracer may
// be nil.
func NewUserRepository(db database.DBTX, tracer *database.QueryTracer) *UserRepository {
	return &UserRepository{db: db, tracer: tracer}
}

func selectUser(where string, excludePassword bool) string {
	password := "u.password_hash"
	if excludePassword {
		password = "'' AS password_hash"
	}
	return "SELECT " + fmt.Sprintf(userColumns, password) + "\n\tFROM users u\n\tWHERE " + where
}

// FindByUsername retrieves a user by normalized username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (u *domain.User, err error) {
	query := selectUser("u.username = $1", false)
	ctx, end := r.tracer.Trace(ctx, "FindUserByUsername", query)
	defer func() { end(err) }()

	return r.findOne(ctx, query, username, repository.FindOptions{})
}

// FindByEmail retrieves a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, opts repository.FindOptions) (u *domain.User, err error) {
	query := selectUser("u.email = $1", opts.ExcludePassword)
	ctx, end := r.tracer.Trace(ctx, "FindUserByEmail", query)
	defer func() { end(err) }()

	return r.findOne(ctx, query, email, opts)
}

// FindByID retrieves a user by id. An id that is not a valid UUID matches
// nothing.
func (r *UserRepository) FindByID(ctx context.Context, id string, opts repository.FindOptions) (u *domain.User, err error) {
	query := selectUser("u.id = $1", opts.ExcludePassword)
	ctx, end := r.tracer.Trace(ctx, "FindUserByID", query)
	defer func() { end(err) }()

	return r.findOne(ctx, query, id, opts)
}

func (r *UserRepository) findOne(ctx context.Context, query, arg string, opts repository.FindOptions) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.FullName,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Avatar,
		&u.Role,
		&u.Gender,
		&u.Mobile,
		&u.Address,
		&u.Story,
		&u.Website,
		&u.Followers.IDs,
		&u.Following.IDs,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "find user")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if opts.PopulateRelations {
		if err := r.populate(ctx, &u); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// populate loads the summary projection of every follower and followee.
func (r *UserRepository) populate(ctx context.Context, u *domain.User) error {
	rows, err := r.db.Query(ctx, relationsQuery, u.ID)
	if err != nil {
		return fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	u.Followers.Populated, u.Following.Populated = true, true
	u.Followers.Profiles, u.Following.Profiles = []domain.UserSummary{}, []domain.UserSummary{}

	for rows.Next() {
		var (
			relation string
			s        domain.UserSummary
			skip     any
		)
		if err := rows.Scan(&relation, &s.ID, &s.Avatar, &s.Username, &s.FullName, &s.Followers, &s.Following, &skip); err != nil {
			return fmt.Errorf("scan relation: %w", err)
		}
		if relation == "followers" {
			u.Followers.Profiles = append(u.Followers.Profiles, s)
		} else {
			u.Following.Profiles = append(u.Following.Profiles, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate relations: %w", err)
	}
	return nil
}

// Insert stores a new user. The database assigns the id and timestamps.
func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (id string, err error) {
	ctx, end := r.tracer.Trace(ctx, "InsertUser", insertUserQuery)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, insertUserQuery,
		u.FullName,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Avatar,
		u.Role,
		u.Gender,
		u.Mobile,
		u.Address,
		u.Story,
		u.Website,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return "", &repository.DuplicateKeyError{Field: field}
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return u.ID, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// duplicateField maps a unique violation onto the offending field. Violations
// of any other constraint are not reported as duplicates.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return "", false
	}
	switch {
	case pgErr.ConstraintName == constraintUsernameKey, strings.Contains(pgErr.Detail, "(username)"):
		return repository.FieldUsername, true
	case pgErr.ConstraintName == constraintEmailKey, strings.Contains(pgErr.Detail, "(email)"):
		return repository.FieldEmail, true
	default:
		return "", false
	}
}
