package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password in bytes that bcrypt accepts.
const MaxPasswordLength = 72

var (
	// ErrInvalidCredentials is returned when a password does not match its hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordLength bytes.
	ErrPasswordTooLong = errors.New("password too long")
)

// placeholderHash is compared against when there is no account, so that a
// missing user costs as much as a wrong password.
var placeholderHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("fritter placeholder password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("hashing placeholder password: %v", err))
	}
	return hash
})

// HashPassword returns the bcrypt hash of password using the default cost.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against a hash produced by HashPassword.
// An empty hash stands for a missing account: the comparison still runs and
// ErrInvalidCredentials is returned.
func CheckPassword(hash, password string) error {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(placeholderHash(), []byte(password))
		return ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("comparing password: %w", err)
	}
	return nil
}
