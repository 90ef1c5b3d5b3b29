package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/repository"
)

// ResetTokenRepository stores password reset tokens in PostgreSQL.
type ResetTokenRepository struct {
	pool poolIface
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(pool poolIface) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

// Replace deletes the user's existing tokens and inserts t in a single
// transaction, holding a row lock on the user throughout.
func (r *ResetTokenRepository) Replace(ctx context.Context, t *domain.PasswordResetToken) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, t.UserID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return oops.Code("USER_NOT_FOUND").
				With("user_id", t.UserID).
				Wrap(repository.ErrNotFound)
		}
		if err != nil {
			return oops.Code("RESET_LOCK_USER_FAILED").
				With("operation", "lock user").
				With("user_id", t.UserID).
				Wrap(err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, t.UserID); err != nil {
			return oops.Code("RESET_DELETE_BY_USER_FAILED").
				With("operation", "delete password_reset_tokens by user").
				With("user_id", t.UserID).
				Wrap(err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
			VALUES ($1, $2, $3)
		`, t.UserID, t.TokenHash, t.ExpiresAt); err != nil {
			return oops.Code("RESET_CREATE_FAILED").
				With("operation", "insert password_reset_token").
				With("user_id", t.UserID).
				Wrap(err)
		}
		return nil
	})
}

// GetByTokenHash returns nil, nil when no token matches.
func (r *ResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var (
		userID    int64
		hash      string
		expiresAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, token_hash, expires_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&userID, &hash, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("RESET_SCAN_FAILED").
			With("operation", "scan password_reset_token").
			Wrap(err)
	}
	return &domain.PasswordResetToken{UserID: userID, TokenHash: hash, ExpiresAt: expiresAt}, nil
}

// DeleteByTokenHash removes the token. A missing token is not an error.
func (r *ResetTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return oops.Code("RESET_DELETE_FAILED").
			With("operation", "delete password_reset_token").
			Wrap(err)
	}
	return nil
}

// Consume deletes the token and returns the deleted row, or nil, nil when
// no token matches. The single DELETE ... RETURNING means only one of
// several concurrent callers sees the row.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var (
		userID    int64
		hash      string
		expiresAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		DELETE FROM password_reset_tokens
		WHERE token_hash = $1
		RETURNING user_id, token_hash, expires_at
	`, tokenHash).Scan(&userID, &hash, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("RESET_CONSUME_FAILED").
			With("operation", "delete password_reset_token returning").
			Wrap(err)
	}
	return &domain.PasswordResetToken{UserID: userID, TokenHash: hash, ExpiresAt: expiresAt}, nil
}
