package authentication

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/cftpd/pkg/logging"
)

// CustomProviderClassKey is the setting that names the custom provider
const CustomProviderClassKey = "authentication.provider.custom.class"

// CustomProvider is a Provider whose implementation is chosen by configuration.
// It holds exactly one instance, created in NewCustomProvider and never replaced.
type CustomProvider struct {
	identifier string
	provider   Provider
}

var _ Provider = (*CustomProvider)(nil)

// NewCustomProvider resolves the identifier stored under CustomProviderClassKey
// in reg (the default registry when nil) and instantiates it once. Registered
// factories produce Providers by type; plugin symbols are checked before they
// are called. Every failure aborts construction.
func NewCustomProvider(settings Settings, reg *Registry) (*CustomProvider, error) {
	if reg == nil {
		reg = defaultRegistry
	}

	var identifier string
	if settings != nil {
		if v, ok := settings.Get(CustomProviderClassKey); ok {
			identifier = strings.TrimSpace(v)
		}
	}
	if identifier == "" {
		return nil, &ConfigurationError{Key: CustomProviderClassKey}
	}

	name, factory, err := reg.resolve(identifier)
	if err != nil {
		return nil, err
	}

	provider, err := instantiate(name, factory)
	if err != nil {
		return nil, err
	}

	logging.App.Info("Loaded custom authentication provider", "provider", name, "configured", identifier, "type", fmt.Sprintf("%T", provider))
	return &CustomProvider{identifier: name, provider: provider}, nil
}

// instantiate runs factory, turning returned errors and panics into InstantiationError
func instantiate(identifier string, factory Factory) (provider Provider, err error) {
	defer func() {
		if r := recover(); r != nil {
			provider = nil
			err = &InstantiationError{Identifier: identifier, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	provider, err = factory()
	if err != nil {
		return nil, &InstantiationError{Identifier: identifier, Err: err}
	}
	if provider == nil {
		return nil, &InstantiationError{Identifier: identifier, Err: errors.New("factory returned no provider")}
	}
	return provider, nil
}

// Authenticate forwards to the configured provider and returns its result unchanged
func (c *CustomProvider) Authenticate(user, password string) error {
	return c.provider.Authenticate(user, password)
}

// Provider returns the underlying instance, e.g. for wrapping it with Instrument
func (c *CustomProvider) Provider() Provider {
	return c.provider
}

// Identifier returns the canonical name the provider was resolved to. An alias
// in the configuration reports the name it points at.
func (c *CustomProvider) Identifier() string {
	return c.identifier
}
