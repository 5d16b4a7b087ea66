package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("Jane4821")
	require.NoError(t, err)
	assert.NotEqual(t, "Jane4821", hash)

	assert.True(t, h.CheckPassword(hash, "Jane4821"))
	assert.False(t, h.CheckPassword(hash, "Jane4822"))
}

func TestHasherRejectsEmptyPassword(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).HashPassword("")
	require.Error(t, err)
}

func TestNewHasherFallsBackOnInvalidCost(t *testing.T) {
	assert.Equal(t, BcryptCost, NewHasher(0).cost)
	assert.Equal(t, BcryptCost, NewHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestDefaultPassword(t *testing.T) {
	assert.Equal(t, "Jane1234", DefaultPassword("Jane", func() int { return 1234 }))

	pattern := regexp.MustCompile(`^Jane\d{4}$`)
	for i := 0; i < 100; i++ {
		pw := DefaultPassword("Jane", nil)
		require.Regexp(t, pattern, pw)
	}
}

func TestRandomDigitsRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := RandomDigits()
		require.GreaterOrEqual(t, d, DefaultPasswordMin)
		require.LessOrEqual(t, d, DefaultPasswordMax)
	}
}
