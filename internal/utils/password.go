package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt reads; anything after it would be ignored.
const MaxPasswordBytes = 72

var (
	ErrInvalidInput  = errors.New("invalid password input")
	ErrMalformedHash = errors.New("malformed password hash")
)

// PasswordHasher stores passwords as salted bcrypt digests. The salt and cost are
// embedded in the encoded hash, so Verify needs nothing but the stored string.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher creates a hasher using the given bcrypt cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when a username does not exist so both login paths cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("vision-webapi-timing-equalizer"), cost)
	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

// Cost returns the bcrypt work factor used for new hashes.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a freshly salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidInput, MaxPasswordBytes)
		}
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hashed. The comparison is constant time.
// ErrMalformedHash is returned when hashed is not a bcrypt hash. Passwords longer than
// MaxPasswordBytes can never have been hashed, so they never match.
func (h *PasswordHasher) Verify(password, hashed string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		h.VerifyDummy(password[:MaxPasswordBytes])
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// VerifyDummy burns the same CPU as a real Verify and always reports false.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
	return false
}
