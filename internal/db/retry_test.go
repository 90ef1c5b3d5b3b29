package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyapi/warehouse-auth/internal/logging"
)

func TestPingWithRetry(t *testing.T) {
	errDown := errors.New("connection refused")

	t.Run("recovers", func(t *testing.T) {
		calls := 0
		err := pingWithRetry(context.Background(), logging.Discard(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errDown
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := pingWithRetry(context.Background(), logging.Discard(), func(context.Context) error {
			calls++
			return errDown
		})
		require.ErrorIs(t, err, errDown)
		assert.Equal(t, pingAttempts, calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := pingWithRetry(ctx, logging.Discard(), func(context.Context) error { return errDown })
		require.Error(t, err)
	})
}
