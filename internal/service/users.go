package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/password"
	"github.com/akyapi/warehouse-auth/internal/repository"
)

type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Ping(ctx context.Context) error
}

// UserStore owns user records and is the only place raw passwords are
// turned into hashes.
type UserStore struct {
	repo   UserRepository
	hasher password.Hasher

	dummyOnce sync.Once
	dummyHash string
}

func NewUserStore(repo UserRepository, hasher password.Hasher) *UserStore {
	return &UserStore{repo: repo, hasher: hasher}
}

// Create returns the new user without its hash.
func (s *UserStore) Create(ctx context.Context, username, email, rawPassword string) (*domain.User, error) {
	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, username, email, hash)
	if errors.Is(err, repository.ErrDuplicateIdentity) {
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, err
	}

	return &domain.User{ID: id, Username: username, Email: email}, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// VerifyCredentials returns nil, nil for an unknown email and for a wrong
// password alike.
func (s *UserStore) VerifyCredentials(ctx context.Context, email, rawPassword string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Same hashing work as a wrong password for a known email.
		s.hasher.Verify(s.dummy(), rawPassword)
		return nil, nil
	}
	if !s.hasher.Verify(u.PasswordHash, rawPassword) {
		return nil, nil
	}
	return u, nil
}

// dummy returns a hash at the hasher's cost, for logins with an unknown
// email.
func (s *UserStore) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("warehouse-auth:unknown-account")
	})
	return s.dummyHash
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID int64, newRawPassword string) error {
	hash, err := s.hasher.Hash(newRawPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.repo.UpdatePassword(ctx, userID, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
