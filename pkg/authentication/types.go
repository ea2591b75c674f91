// Package authentication verifies username/password pairs through a provider
// selected by configuration.
//
// Providers are registered by name in a Registry. At startup a CustomProvider
// reads the configured identifier, resolves it, constructs exactly one
// instance and forwards every Authenticate call to it. Any defect in that
// chain is reported at construction time so the server refuses to start.
package authentication

import "errors"

// Provider verifies a credential pair. A nil error means the user is
// authenticated; rejected credentials are reported as *AuthenticationFailure.
//
// Implementations must be safe for concurrent use: the FTP server calls
// Authenticate from one goroutine per client connection.
type Provider interface {
	Authenticate(user, password string) error
}

// ProviderFunc adapts an ordinary function to the Provider interface
type ProviderFunc func(user, password string) error

// Authenticate calls f(user, password)
func (f ProviderFunc) Authenticate(user, password string) error {
	return f(user, password)
}

// PasswordVerifier is an interface for password verification algorithms
type PasswordVerifier interface {
	// VerifyPassword checks if a password matches its hashed version
	VerifyPassword(password, hashedPassword string) error
}

// Settings supplies configuration values by key
type Settings interface {
	Get(key string) (string, bool)
}

// MapSettings is a Settings backed by a plain map
type MapSettings map[string]string

// Get implements Settings
func (m MapSettings) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

var (
	// ErrInvalidCredentials is wrapped by failures caused by a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownUser is wrapped by failures for users the provider does not know
	ErrUnknownUser = errors.New("unknown user")

	// ErrBackendUnavailable is wrapped by failures caused by an unreachable identity store
	ErrBackendUnavailable = errors.New("authentication backend unavailable")

	// ErrPasswordMismatch is returned by verifiers when the password does not match the hash
	ErrPasswordMismatch = errors.New("password mismatch")
)
