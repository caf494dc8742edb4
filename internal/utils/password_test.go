package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher()

	for _, pw := range []string{"secret1", "pass123", "päss wörd ✓", strings.Repeat("x", 72)} {
		hashed, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotContains(t, hashed, pw)

		ok, err := h.Verify(pw, hashed)
		require.NoError(t, err)
		assert.True(t, ok, pw)
	}
}

func TestPasswordHasher_SaltedEveryCall(t *testing.T) {
	h := newTestHasher()

	a, err := h.Hash("pass123")
	require.NoError(t, err)
	b, err := h.Hash("pass123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	h := newTestHasher()

	hashed, err := h.Hash("pass123")
	require.NoError(t, err)

	ok, err := h.Verify("pass124", hashed)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Verify("", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	_, err := newTestHasher().Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordHasher_VerifyRejectsOverlongInput(t *testing.T) {
	h := newTestHasher()
	stored := strings.Repeat("a", MaxPasswordBytes)

	hashed, err := h.Hash(stored)
	require.NoError(t, err)

	for _, candidate := range []string{stored + "-different-suffix", stored + "a", stored + strings.Repeat("b", 100)} {
		ok, err := h.Verify(candidate, hashed)
		require.NoError(t, err)
		assert.False(t, ok, len(candidate))
	}

	ok, err := h.Verify(stored, hashed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := newTestHasher()

	for _, bad := range []string{"", "not-a-hash", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"} {
		ok, err := h.Verify("pass123", bad)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrMalformedHash, bad)
	}
}

func TestPasswordHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost())
	assert.Equal(t, bcrypt.MinCost, newTestHasher().Cost())
}

func TestPasswordHasher_VerifyDummy(t *testing.T) {
	assert.False(t, newTestHasher().VerifyDummy("anything"))
}
