package accounts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/primatebot/app/accounts"
)

func TestHashPasswordVerifies(t *testing.T) {
	hash, err := accounts.HashPassword("secret1", 4)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, accounts.VerifyPassword("secret1", hash))
	assert.False(t, accounts.VerifyPassword("secret2", hash))
}

func TestHashPasswordFreshSalt(t *testing.T) {
	h1, err := accounts.HashPassword("secret1", 4)
	require.NoError(t, err)
	h2, err := accounts.HashPassword("secret1", 4)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, accounts.VerifyPassword("secret1", h1))
	assert.True(t, accounts.VerifyPassword("secret1", h2))
}

func TestHashPasswordCostFallback(t *testing.T) {
	// out-of-range cost falls back to the library default
	hash, err := accounts.HashPassword("secret1", 99)
	require.NoError(t, err)
	assert.True(t, accounts.VerifyPassword("secret1", hash))
}

func TestVerifyPasswordBadHash(t *testing.T) {
	assert.False(t, accounts.VerifyPassword("secret1", ""))
	assert.False(t, accounts.VerifyPassword("secret1", "not-a-bcrypt-hash"))
}
