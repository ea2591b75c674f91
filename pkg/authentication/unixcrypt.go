package authentication

import (
	"errors"

	"github.com/digitive/crypt"
)

// UnixCrypt verifies traditional 13-character DES crypt(3) hashes
type UnixCrypt struct{}

// NewUnixCrypt creates a new Unix crypt verifier
func NewUnixCrypt() *UnixCrypt {
	return &UnixCrypt{}
}

// Hash hashes password using its first two characters as the salt
func (h *UnixCrypt) Hash(password string) (string, error) {
	if len(password) < 2 {
		return "", errors.New("password too short to derive a salt")
	}
	return crypt.Crypt(password, password[:2])
}

// VerifyPassword checks password against a crypt hash whose first two characters are the salt
func (h *UnixCrypt) VerifyPassword(password, hashedPassword string) error {
	if len(hashedPassword) < 2 {
		return errors.New("invalid hash: too short")
	}

	computed, err := crypt.Crypt(password, hashedPassword[:2])
	if err != nil {
		return err
	}
	if computed != hashedPassword {
		return ErrPasswordMismatch
	}
	return nil
}
