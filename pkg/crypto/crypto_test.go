package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passphrase")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-passphrase", hash)

	require.True(t, VerifyPassword(hash, "s3cret-passphrase"))
	require.False(t, VerifyPassword(hash, "wrong"))
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	first, err := GenerateToken(50)
	require.NoError(t, err)
	second, err := GenerateToken(50)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	// 50 raw bytes encode to at least 60 url-safe characters.
	require.GreaterOrEqual(t, len(first), 60)
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		require.True(t, r >= '0' && r <= '9')
	}
}
