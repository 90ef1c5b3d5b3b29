package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/repository"
)

const (
	DefaultResetTokenTTL = 30 * time.Minute
	resetTokenBytes      = 32
)

type ResetTokenRepository interface {
	Replace(ctx context.Context, t *domain.PasswordResetToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// Consume atomically removes the token and returns it, or nil, nil when
	// no token matches. Of several concurrent calls for one hash, exactly
	// one gets the token.
	Consume(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
}

// IssuedResetToken carries the raw token. It exists only in memory and in
// the email sent to the user.
type IssuedResetToken struct {
	Token     string
	ExpiresAt time.Time
}

// ResetTokenStore hands out single-use reset tokens, at most one live token
// per user. Only the SHA-256 of a token is persisted.
type ResetTokenStore struct {
	repo    ResetTokenRepository
	ttl     time.Duration
	now     func() time.Time
	entropy io.Reader
}

func NewResetTokenStore(repo ResetTokenRepository, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenStore{
		repo:    repo,
		ttl:     ttl,
		now:     time.Now,
		entropy: rand.Reader,
	}
}

// WithClock returns a copy of the store reading time from now.
func (s *ResetTokenStore) WithClock(now func() time.Time) *ResetTokenStore {
	c := *s
	c.now = now
	return &c
}

func (s *ResetTokenStore) TTL() time.Duration {
	return s.ttl
}

// Issue replaces any token the user holds with a fresh one.
func (s *ResetTokenStore) Issue(ctx context.Context, userID int64) (*IssuedResetToken, error) {
	raw, err := generateResetToken(s.entropy)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.ttl)
	err = s.repo.Replace(ctx, &domain.PasswordResetToken{
		UserID:    userID,
		TokenHash: hashResetToken(raw),
		ExpiresAt: expiresAt,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &IssuedResetToken{Token: raw, ExpiresAt: expiresAt}, nil
}

// Find returns nil, nil for an unknown token. Expired tokens are returned
// as-is; see IsExpired.
func (s *ResetTokenStore) Find(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	return s.repo.GetByTokenHash(ctx, hashResetToken(token))
}

// Delete is idempotent.
func (s *ResetTokenStore) Delete(ctx context.Context, token string) error {
	return s.repo.DeleteByTokenHash(ctx, hashResetToken(token))
}

// Consume spends token and returns the stored row, or nil, nil for an
// unknown or already spent token. Expired tokens are spent and returned
// as-is; see IsExpired.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	return s.repo.Consume(ctx, hashResetToken(token))
}

func (s *ResetTokenStore) IsExpired(t *domain.PasswordResetToken) bool {
	return t.IsExpired(s.now())
}

func generateResetToken(r io.Reader) (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
