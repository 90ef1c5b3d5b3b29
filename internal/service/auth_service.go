// Package service implements the register, login and password reset flows
// on top of the user and reset token stores.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/logging"
	"github.com/akyapi/warehouse-auth/internal/token"
)

type SessionIssuer interface {
	Issue(id token.Identity) (string, error)
}

type PasswordResetMailer interface {
	SendPasswordReset(ctx context.Context, u *domain.User, token string, validFor time.Duration) error
}

type AuthService struct {
	users    *UserStore
	tokens   *ResetTokenStore
	sessions SessionIssuer
	mail     PasswordResetMailer
	log      *slog.Logger
}

func NewAuthService(
	users *UserStore,
	tokens *ResetTokenStore,
	sessions SessionIssuer,
	mail PasswordResetMailer,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mail:     mail,
		log:      log,
	}
}

// Register creates the account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	const op = "service.AuthService.Register"
	log := s.log.With(slog.String("op", op))

	if err := req.Validate(); err != nil {
		return "", invalid(err)
	}

	u, err := s.users.Create(ctx, req.Username, req.Email, req.Password)
	if errors.Is(err, ErrDuplicateIdentity) {
		log.Info("registration rejected, identity taken")
		return "", ErrDuplicateIdentity
	}
	if err != nil {
		log.Error("failed to create user", logging.Err(err))
		return "", internal(op, err)
	}

	sessionToken, err := s.issueSession(u)
	if err != nil {
		log.Error("user created but session could not be issued", slog.Int64("user_id", u.ID), logging.Err(err))
		return "", internal(op, err)
	}

	log.Info("user registered", slog.Int64("user_id", u.ID))
	return sessionToken, nil
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	const op = "service.AuthService.Login"
	log := s.log.With(slog.String("op", op))

	if err := req.Validate(); err != nil {
		return "", invalid(err)
	}

	u, err := s.users.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		log.Error("failed to verify credentials", logging.Err(err))
		return "", internal(op, err)
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}

	sessionToken, err := s.issueSession(u)
	if err != nil {
		log.Error("credentials valid but session could not be issued", slog.Int64("user_id", u.ID), logging.Err(err))
		return "", internal(op, err)
	}

	log.Debug("user logged in", slog.Int64("user_id", u.ID))
	return sessionToken, nil
}

// ForgotPassword issues a reset token and mails it. An unknown email is
// not an error, so callers cannot enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	const op = "service.AuthService.ForgotPassword"
	log := s.log.With(slog.String("op", op))

	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Error("failed to look up user", logging.Err(err))
		return internal(op, err)
	}
	if u == nil {
		log.Debug("password reset requested for unknown email")
		return nil
	}
	log = log.With(slog.Int64("user_id", u.ID))

	issued, err := s.tokens.Issue(ctx, u.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Error("failed to issue reset token", logging.Err(err))
		return internal(op, err)
	}

	// The token stays valid if sending fails; a retry replaces it.
	if err := s.mail.SendPasswordReset(ctx, u, issued.Token, s.tokens.TTL()); err != nil {
		log.Error("failed to send reset email", logging.Err(err))
		return internal(op, err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	const op = "service.AuthService.ResetPassword"
	log := s.log.With(slog.String("op", op))

	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	// The token is spent before the password changes. A failed update
	// means the user has to request a new link.
	t, err := s.tokens.Consume(ctx, req.Token)
	if err != nil {
		log.Error("failed to consume reset token", logging.Err(err))
		return internal(op, err)
	}
	if t == nil {
		return ErrTokenInvalid
	}
	log = log.With(slog.Int64("user_id", t.UserID))

	if s.tokens.IsExpired(t) {
		return ErrTokenExpired
	}

	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		log.Error("failed to load user", logging.Err(err))
		return internal(op, err)
	}
	if u == nil {
		return ErrNotFound
	}

	err = s.users.UpdatePassword(ctx, u.ID, req.NewPassword)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		log.Error("failed to update password", logging.Err(err))
		return internal(op, err)
	}

	log.Info("password reset")
	return nil
}

// Me loads the user behind a verified session.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	const op = "service.AuthService.Me"

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to load user", slog.String("op", op), slog.Int64("user_id", userID), logging.Err(err))
		return nil, internal(op, err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *AuthService) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

func (s *AuthService) issueSession(u *domain.User) (string, error) {
	return s.sessions.Issue(token.Identity{UserID: u.ID, Username: u.Username, Email: u.Email})
}
