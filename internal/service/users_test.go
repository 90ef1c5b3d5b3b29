package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akyapi/warehouse-auth/internal/password"
	"github.com/akyapi/warehouse-auth/internal/repository/memory"
)

type countingHasher struct {
	password.Hasher

	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(raw string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.Hasher.Hash(raw)
}

func (h *countingHasher) Verify(hash, raw string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.Hasher.Verify(hash, raw)
}

func TestUserStore_VerifyCredentials_UnknownEmailStillHashes(t *testing.T) {
	ctx := context.Background()
	hasher := &countingHasher{Hasher: password.NewBcryptHasher(bcrypt.MinCost)}
	users := NewUserStore(memory.NewUserRepository(memory.NewStore()), hasher)

	_, err := users.Create(ctx, "alice", "a@x.com", "secret123")
	require.NoError(t, err)

	u, err := users.VerifyCredentials(ctx, "a@x.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 1, hasher.verifies)

	for range 3 {
		u, err = users.VerifyCredentials(ctx, "ghost@x.com", "secret123")
		require.NoError(t, err)
		assert.Nil(t, u)
	}
	assert.Equal(t, 4, hasher.verifies)
	// One hash for alice, one for the shared dummy.
	assert.Equal(t, 2, hasher.hashes)

	u, err = users.VerifyCredentials(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
}
