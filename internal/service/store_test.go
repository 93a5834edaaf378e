package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/repository"
	apperrors "github.com/priyabakthisaran/SocialNetworkClone/pkg/errors"
)

// --- In-memory identity store ---

// memStore enforces username and email uniqueness at Insert, like the
// database's unique indexes.
type memStore struct {
	mu           sync.Mutex
	byID         map[string]*domain.User
	seq          int
	beforeInsert func()
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*domain.User)}
}

var _ repository.UserRepository = (*memStore)(nil)

func (s *memStore) find(match func(*domain.User) bool, opts repository.FindOptions) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			cpy := *u
			if opts.ExcludePassword {
				cpy.PasswordHash = ""
			}
			if opts.PopulateRelations {
				cpy.Followers.Populated, cpy.Following.Populated = true, true
				cpy.Followers.Profiles = []domain.UserSummary{}
				cpy.Following.Profiles = []domain.UserSummary{}
			}
			return &cpy, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", apperrors.ErrNotFound)
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username }, repository.FindOptions{})
}

func (s *memStore) FindByEmail(_ context.Context, email string, opts repository.FindOptions) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email }, opts)
}

func (s *memStore) FindByID(_ context.Context, id string, opts repository.FindOptions) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id }, opts)
}

func (s *memStore) Insert(_ context.Context, u *domain.User) (string, error) {
	if s.beforeInsert != nil {
		s.beforeInsert()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == u.Username {
			return "", &repository.DuplicateKeyError{Field: repository.FieldUsername}
		}
		if existing.Email == u.Email {
			return "", &repository.DuplicateKeyError{Field: repository.FieldEmail}
		}
	}

	s.seq++
	now := time.Now().UTC()
	u.ID = fmt.Sprintf("user-%d", s.seq)
	u.CreatedAt, u.UpdatedAt = now, now
	cpy := *u
	s.byID[u.ID] = &cpy
	return u.ID, nil
}

func (s *memStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string, opts repository.FindOptions) (*domain.User, error) {
	args := m.Called(ctx, email, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string, opts repository.FindOptions) (*domain.User, error) {
	args := m.Called(ctx, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Insert(ctx context.Context, u *domain.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

var errStoreDown = errors.New("connection refused")
