package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	for _, plain := range []string{"secret1", "", "päss wörd with spaces", "0123456789012345678901234567890123456789012345678901234567890123456789"} {
		hash, err := HashPassword(plain, bcrypt.MinCost)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(hash, plain), "hash must verify its own plaintext %q", plain)
		assert.False(t, VerifyPassword(hash, plain+"x"), "hash must reject a different plaintext")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	a, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two hashes of the same password must differ")
}

func TestHashPasswordZeroCostUsesDefault(t *testing.T) {
	hash, err := HashPassword("secret1", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "secret1"))
}
