package authentication

import (
	"errors"
	"strings"
)

// MultiHashVerifier detects the hash type and delegates to the matching verifier
type MultiHashVerifier struct {
	unixCrypt *UnixCrypt
	argon2id  *Argon2ID
	bcrypt    *Bcrypt
}

// NewMultiHashVerifier creates a verifier for Unix crypt, Argon2id and bcrypt hashes
func NewMultiHashVerifier() *MultiHashVerifier {
	return &MultiHashVerifier{
		unixCrypt: NewUnixCrypt(),
		argon2id:  NewArgon2ID(),
		bcrypt:    NewBcrypt(),
	}
}

// VerifyPassword implements PasswordVerifier
func (v *MultiHashVerifier) VerifyPassword(password, hashedPassword string) error {
	switch {
	case hashedPassword == "":
		return errors.New("empty hash")
	case strings.HasPrefix(hashedPassword, "$argon2id$"):
		return v.argon2id.VerifyPassword(password, hashedPassword)
	case strings.HasPrefix(hashedPassword, "$2a$"),
		strings.HasPrefix(hashedPassword, "$2b$"),
		strings.HasPrefix(hashedPassword, "$2y$"):
		return v.bcrypt.VerifyPassword(password, hashedPassword)
	case len(hashedPassword) == 13 && !strings.Contains(hashedPassword, "$"):
		// Unix crypt: 13 characters, no $ symbols
		return v.unixCrypt.VerifyPassword(password, hashedPassword)
	}
	return errors.New("unsupported hash format")
}
