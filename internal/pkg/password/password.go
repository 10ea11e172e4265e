// Package password hashes and verifies user passwords with bcrypt and checks
// plaintext candidates against the account password policy.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashing is returned when the underlying primitive fails or a stored
// digest cannot be parsed. A plain mismatch is never an error.
var ErrHashing = errors.New("password hashing error")

// Symbols is the fixed set of special characters the policy accepts.
const Symbols = "@$!%*?&"

// MinLength is the minimum number of characters in a valid password.
const MinLength = 8

// Hasher hashes passwords with a tunable bcrypt work factor.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, falling back to bcrypt.DefaultCost
// when cost is outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest.
func (h *Hasher) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrHashing, err)
	}
}

// MeetsPolicy reports whether plain is at least MinLength characters long and
// contains a lowercase letter, an uppercase letter, a digit and one of Symbols.
func MeetsPolicy(plain string) bool {
	if utf8.RuneCountInString(plain) < MinLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
