package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyapi/warehouse-auth/internal/config"
	"github.com/akyapi/warehouse-auth/internal/logging"
	"github.com/akyapi/warehouse-auth/internal/mailer"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, buf.String(), sub, "help missing %q command", sub)
	}
}

func TestMigrateCommand_MemoryDriver(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvProduction)
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("MAIL_FROM", "noreply@example.com")
	t.Setenv("DB_DRIVER", config.DriverMemory)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "up"})

	require.ErrorIs(t, cmd.Execute(), errNoMigrations)
}

func TestOpenStorage_Memory(t *testing.T) {
	store, err := openStorage(context.Background(), &config.Config{DBDriver: config.DriverMemory}, logging.Discard())
	require.NoError(t, err)
	defer store.close()

	assert.Nil(t, store.sqlDB)
	id, err := store.users.Create(context.Background(), "alice", "a@x.com", "h")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := openStorage(context.Background(), &config.Config{DBDriver: "oracle"}, logging.Discard())
	require.Error(t, err)
}

func TestNewSender(t *testing.T) {
	tests := []struct {
		provider string
		want     mailer.Sender
	}{
		{config.MailSMTP, &mailer.SMTPSender{}},
		{config.MailSendGrid, &mailer.SendGridSender{}},
		{config.MailResend, &mailer.ResendSender{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			s, err := newSender(&config.Config{MailProvider: tt.provider, MailFrom: "noreply@example.com"})
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}

	_, err := newSender(&config.Config{MailProvider: "pigeon"})
	require.Error(t, err)
}
