package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTPFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit in %q", code)
		}
		seen[code] = true
	}
	// 200 кодов из миллиона не должны схлопнуться в одно значение
	assert.Greater(t, len(seen), 1)
}

func TestNewResetToken(t *testing.T) {
	tok, err := NewResetToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64) // hex: 2 символа на байт

	// nBytes <= 0 — дефолтные 32 байта
	tok, err = NewResetToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	other, err := NewResetToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}
