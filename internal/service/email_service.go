package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/logging"
	"github.com/akyapi/warehouse-auth/internal/mailer"
)

const logoContentID = "logo"

//go:embed templates/*
var templatesFS embed.FS

var (
	resetHTML = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/password_reset.html"))
	resetText = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/password_reset.txt"))
)

type resetEmailData struct {
	AppName          string
	Username         string
	ResetURL         string
	ExpiresInMinutes int
	HasLogo          bool
	LogoID           string
}

type EmailService struct {
	sender         mailer.Sender
	appName        string
	frontendOrigin string
	logoPath       string
	log            *slog.Logger
}

func NewEmailService(sender mailer.Sender, appName, frontendOrigin, logoPath string, log *slog.Logger) *EmailService {
	return &EmailService{
		sender:         sender,
		appName:        appName,
		frontendOrigin: strings.TrimRight(frontendOrigin, "/"),
		logoPath:       logoPath,
		log:            log,
	}
}

// ResetURL is the frontend page that consumes token.
func (s *EmailService) ResetURL(token string) string {
	return s.frontendOrigin + "/reset-password?" + url.Values{"token": {token}}.Encode()
}

func (s *EmailService) SendPasswordReset(ctx context.Context, u *domain.User, token string, validFor time.Duration) error {
	const op = "service.EmailService.SendPasswordReset"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", u.ID))

	data := resetEmailData{
		AppName:          s.appName,
		Username:         u.Username,
		ResetURL:         s.ResetURL(token),
		ExpiresInMinutes: int(validFor / time.Minute),
		LogoID:           logoContentID,
	}

	msg := &mailer.Message{
		To:      u.Email,
		Subject: s.appName + " password reset request",
	}

	if logo, ok := s.loadLogo(log); ok {
		msg.Inline = append(msg.Inline, logo)
		data.HasLogo = true
	}

	var html, text bytes.Buffer
	if err := resetHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render html body: %w", err)
	}
	if err := resetText.Execute(&text, data); err != nil {
		return fmt.Errorf("failed to render text body: %w", err)
	}
	msg.HTML = html.String()
	msg.Text = text.String()

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("password reset email sent")
	return nil
}

func (s *EmailService) loadLogo(log *slog.Logger) (mailer.Attachment, bool) {
	if s.logoPath == "" {
		return mailer.Attachment{}, false
	}

	data, err := os.ReadFile(s.logoPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("logo file not found, sending without it", slog.String("path", s.logoPath))
		} else {
			log.Warn("failed to read logo file", slog.String("path", s.logoPath), logging.Err(err))
		}
		return mailer.Attachment{}, false
	}

	contentType := mime.TypeByExtension(filepath.Ext(s.logoPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return mailer.Attachment{
		Filename:    filepath.Base(s.logoPath),
		ContentType: contentType,
		ContentID:   logoContentID,
		Data:        data,
	}, true
}
