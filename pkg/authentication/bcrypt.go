package authentication

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt verifies $2a$/$2b$/$2y$ hashes
type Bcrypt struct{}

// NewBcrypt returns a Bcrypt verifier
func NewBcrypt() *Bcrypt { return &Bcrypt{} }

// VerifyPassword implements PasswordVerifier
func (b *Bcrypt) VerifyPassword(password, hashedPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
