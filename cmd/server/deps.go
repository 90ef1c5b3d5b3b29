package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/akyapi/warehouse-auth/internal/config"
	"github.com/akyapi/warehouse-auth/internal/db"
	"github.com/akyapi/warehouse-auth/internal/mailer"
	"github.com/akyapi/warehouse-auth/internal/repository"
	"github.com/akyapi/warehouse-auth/internal/repository/memory"
	"github.com/akyapi/warehouse-auth/internal/repository/postgres"
	"github.com/akyapi/warehouse-auth/internal/service"
)

// storage bundles the repositories for the configured driver. sqlDB is nil
// for the memory driver.
type storage struct {
	users  service.UserRepository
	tokens service.ResetTokenRepository
	sqlDB  *sql.DB
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		conn, err := db.ConnectMySQL(ctx, cfg.DSN(), log)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:  repository.NewUserRepository(conn),
			tokens: repository.NewResetTokenRepository(conn),
			sqlDB:  conn,
			close:  func() { conn.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.DSN(), log)
		if err != nil {
			return nil, err
		}
		sqlDB := db.SQLFromPool(pool)
		return &storage{
			users:  postgres.NewUserRepository(pool),
			tokens: postgres.NewResetTokenRepository(pool),
			sqlDB:  sqlDB,
			close: func() {
				sqlDB.Close()
				pool.Close()
			},
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			users:  memory.NewUserRepository(store),
			tokens: memory.NewResetTokenRepository(store),
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func newSender(cfg *config.Config) (mailer.Sender, error) {
	from := mailer.NewFrom(cfg.MailFromName, cfg.MailFrom)
	switch cfg.MailProvider {
	case config.MailSMTP:
		return mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, from), nil
	case config.MailSendGrid:
		return mailer.NewSendGridSender(cfg.SendGridAPIKey, from), nil
	case config.MailResend:
		return mailer.NewResendSender(cfg.ResendAPIKey, from), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_PROVIDER %q", cfg.MailProvider)
	}
}
