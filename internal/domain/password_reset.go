package domain

import "time"

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	if blank(r.Email) {
		return &ValidationError{Message: "email is required"}
	}
	return nil
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	if blank(r.Token) || blank(r.NewPassword) {
		return &ValidationError{Message: "token and new password are required"}
	}
	return validatePassword(r.NewPassword)
}

// PasswordResetToken is a stored reset token. Only the SHA-256 digest of
// the raw token is persisted.
type PasswordResetToken struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
}

// IsExpired reports whether the token is past its expiry at now.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
