package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akyapi/warehouse-auth/internal/domain"
)

type ResetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Replace removes every token held by t.UserID and stores t, in one
// transaction. The user row is locked first so concurrent replaces for the
// same user run one after another.
func (r *ResetTokenRepository) Replace(ctx context.Context, t *domain.PasswordResetToken) error {
	err := withTx(ctx, r.db, func(tx DBTX) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id = ? FOR UPDATE`,
			t.UserID,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock user %d: %w", t.UserID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM password_reset_tokens WHERE user_id = ?`,
			t.UserID,
		); err != nil {
			return fmt.Errorf("failed to delete old tokens: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
			t.UserID, t.TokenHash, t.ExpiresAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to create reset token: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to replace reset token: %w", err)
	}
	return err
}

func (r *ResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token_hash, expires_at FROM password_reset_tokens WHERE token_hash = ?`,
		tokenHash,
	).Scan(&t.UserID, &t.TokenHash, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return &t, nil
}

func (r *ResetTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE token_hash = ?`,
		tokenHash,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	return nil
}

// Consume locks the token row, deletes it and returns what was stored.
// A concurrent Consume for the same hash blocks on the lock and then finds
// nothing.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	err := withTx(ctx, r.db, func(tx DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, token_hash, expires_at FROM password_reset_tokens WHERE token_hash = ? FOR UPDATE`,
			tokenHash,
		).Scan(&t.UserID, &t.TokenHash, &t.ExpiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock reset token: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM password_reset_tokens WHERE token_hash = ?`,
			tokenHash,
		); err != nil {
			return fmt.Errorf("failed to delete reset token: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return &t, nil
}
