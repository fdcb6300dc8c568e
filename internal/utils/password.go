package utils

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned by CheckPasswordStrength for passwords that
// fail the minimum policy.
var ErrWeakPassword = errors.New("password too weak")

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPasswordStrength enforces the registration password policy: at
// least eight characters and not entirely numeric.
func CheckPasswordStrength(plain string) error {
	if len(plain) < 8 {
		return ErrWeakPassword
	}
	allDigits := true
	for _, r := range plain {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return ErrWeakPassword
	}
	return nil
}
