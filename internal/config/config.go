package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal      = "local"
	EnvProduction = "production"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"

	MailSMTP     = "smtp"
	MailSendGrid = "sendgrid"
	MailResend   = "resend"
)

type Config struct {
	Env  string `env:"APP_ENV" env-default:"local"`
	Port string `env:"PORT" env-default:"8080"`

	DBDriver   string `env:"DB_DRIVER" env-default:"postgres"`
	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     string `env:"DB_PORT"`
	DBUser     string `env:"DB_USER" env-default:"warehouse"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" env-default:"warehouse"`
	DBSSLMode  string `env:"DB_SSLMODE" env-default:"disable"`

	JWTSecret     string        `env:"JWT_SECRET" env-required:"true"`
	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"1h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" env-default:"30m"`
	BcryptCost    int           `env:"BCRYPT_COST" env-default:"10"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" env-default:"http://localhost:3000"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`

	MailProvider string `env:"MAIL_PROVIDER" env-default:"smtp"`
	MailFrom     string `env:"MAIL_FROM"`
	MailFromName string `env:"MAIL_FROM_NAME" env-default:"Warehouse"`
	MailLogoPath string `env:"MAIL_LOGO_PATH"`

	SMTPHost string `env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	SMTPPort string `env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	ResendAPIKey   string `env:"RESEND_API_KEY"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads the configuration from the environment. Outside production a
// .env file in the working directory is applied first, if present.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load .env file", slog.Any("error", err))
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET environment variable must be set")
	}

	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}

	if _, err := url.ParseRequestURI(c.FrontendOrigin); err != nil {
		return fmt.Errorf("invalid FRONTEND_ORIGIN: %w", err)
	}

	if c.MailFrom == "" {
		return errors.New("MAIL_FROM environment variable must be set")
	}
	switch c.MailProvider {
	case MailSMTP:
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp mail provider")
		}
	case MailSendGrid:
		if c.SendGridAPIKey == "" {
			return errors.New("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
	case MailResend:
		if c.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY is required for the resend mail provider")
		}
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.MailProvider)
	}

	return nil
}

func (c *Config) dbPort() string {
	if c.DBPort != "" {
		return c.DBPort
	}
	if c.DBDriver == DriverMySQL {
		return "3306"
	}
	return "5432"
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, c.dbPort())
		mc.DBName = c.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     net.JoinHostPort(c.DBHost, c.dbPort()),
			Path:     "/" + c.DBName,
			RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
		}
		return u.String()
	default:
		return ""
	}
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
