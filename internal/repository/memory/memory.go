// Package memory keeps users and reset tokens in process memory. It backs
// DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/repository"
)

// Store is the shared state behind both repositories, so a token replace
// can check the user exists under the same lock.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
	tokens map[string]domain.PasswordResetToken
}

func NewStore() *Store {
	return &Store{
		users:  make(map[int64]domain.User),
		tokens: make(map[string]domain.PasswordResetToken),
	}
}

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(_ context.Context, username, email, passwordHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username || u.Email == email {
			return 0, repository.ErrDuplicateIdentity
		}
	}

	r.s.nextID++
	id := r.s.nextID
	r.s.users[id] = domain.User{ID: id, Username: username, Email: email, PasswordHash: passwordHash}
	return id, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) Ping(context.Context) error {
	return nil
}

type ResetTokenRepository struct {
	s *Store
}

func NewResetTokenRepository(s *Store) *ResetTokenRepository {
	return &ResetTokenRepository{s: s}
}

func (r *ResetTokenRepository) Replace(_ context.Context, t *domain.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[t.UserID]; !ok {
		return repository.ErrNotFound
	}

	for hash, existing := range r.s.tokens {
		if existing.UserID == t.UserID {
			delete(r.s.tokens, hash)
		}
	}
	r.s.tokens[t.TokenHash] = *t
	return nil
}

func (r *ResetTokenRepository) GetByTokenHash(_ context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *ResetTokenRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, tokenHash)
	return nil
}

func (r *ResetTokenRepository) Consume(_ context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	delete(r.s.tokens, tokenHash)
	return &t, nil
}

// CountTokens returns how many reset tokens userID currently holds.
func (r *ResetTokenRepository) CountTokens(userID int64) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}
