package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MAIL_FROM", "noreply@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendOrigin)
	assert.Equal(t, MailSMTP, cfg.MailProvider)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MAIL_FROM", "noreply@example.com")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", DriverMySQL)
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("RESET_TOKEN_TTL", "5m")
	t.Setenv("MAIL_PROVIDER", MailSendGrid)
	t.Setenv("SENDGRID_API_KEY", "sg-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, MailSendGrid, cfg.MailProvider)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			JWTSecret:      "secret",
			DBDriver:       DriverMemory,
			SessionTTL:     time.Hour,
			ResetTokenTTL:  30 * time.Minute,
			FrontendOrigin: "http://localhost:3000",
			MailProvider:   MailSMTP,
			MailFrom:       "noreply@example.com",
			SMTPHost:       "localhost",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "blank secret", mutate: func(c *Config) { c.JWTSecret = "   " }, wantErr: "JWT_SECRET"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "oracle" }, wantErr: "DB_DRIVER"},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
		{name: "negative reset ttl", mutate: func(c *Config) { c.ResetTokenTTL = -time.Minute }, wantErr: "RESET_TOKEN_TTL"},
		{name: "bad origin", mutate: func(c *Config) { c.FrontendOrigin = "not a url" }, wantErr: "FRONTEND_ORIGIN"},
		{name: "no sender", mutate: func(c *Config) { c.MailFrom = "" }, wantErr: "MAIL_FROM"},
		{name: "sendgrid without key", mutate: func(c *Config) { c.MailProvider = MailSendGrid }, wantErr: "SENDGRID_API_KEY"},
		{name: "resend without key", mutate: func(c *Config) { c.MailProvider = MailResend }, wantErr: "RESEND_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.MailProvider = "pigeon" }, wantErr: "MAIL_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		cfg := Config{DBDriver: DriverMySQL, DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "auth"}
		dsn := cfg.DSN()
		assert.Contains(t, dsn, "u:p@tcp(db:3306)/auth?")
		assert.Contains(t, dsn, "parseTime=true")
		assert.Contains(t, dsn, "clientFoundRows=true")
	})

	t.Run("postgres", func(t *testing.T) {
		cfg := Config{DBDriver: DriverPostgres, DBUser: "u", DBPassword: "p@ss", DBHost: "db", DBName: "auth", DBSSLMode: "disable"}
		assert.Equal(t, "postgres://u:p%40ss@db:5432/auth?sslmode=disable", cfg.DSN())
	})

	t.Run("explicit port", func(t *testing.T) {
		cfg := Config{DBDriver: DriverPostgres, DBUser: "u", DBHost: "db", DBPort: "6543", DBName: "auth", DBSSLMode: "require"}
		assert.Contains(t, cfg.DSN(), "@db:6543/auth")
	})

	t.Run("memory", func(t *testing.T) {
		cfg := Config{DBDriver: DriverMemory}
		assert.Empty(t, cfg.DSN())
	})
}
