package authentication

import (
	"fmt"
	"strings"

	"github.com/mmcdole/cftpd/pkg/logging"
)

// AuthTypeKey selects how credentials are verified
const AuthTypeKey = "authentication.type"

// AuthType names an authentication strategy
type AuthType string

const (
	// AuthTypeSimple accepts any credentials
	AuthTypeSimple AuthType = "SIMPLE"
	// AuthTypeCustom delegates to the provider named by CustomProviderClassKey
	AuthTypeCustom AuthType = "CUSTOM"
)

// ParseAuthType parses a configured authentication type, case-insensitively.
// An empty value means SIMPLE.
func ParseAuthType(s string) (AuthType, error) {
	switch t := AuthType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return AuthTypeSimple, nil
	case AuthTypeSimple, AuthTypeCustom:
		return t, nil
	default:
		return "", &ConfigurationError{Key: AuthTypeKey, Reason: fmt.Sprintf("unsupported authentication type %q", s)}
	}
}

// NewProvider builds the provider selected by AuthTypeKey
func NewProvider(settings Settings, reg *Registry) (Provider, error) {
	var raw string
	if settings != nil {
		raw, _ = settings.Get(AuthTypeKey)
	}
	authType, err := ParseAuthType(raw)
	if err != nil {
		return nil, err
	}

	switch authType {
	case AuthTypeCustom:
		return NewCustomProvider(settings, reg)
	default:
		logging.App.Warn("Authentication type SIMPLE accepts any credentials", "setting", AuthTypeKey)
		return NewSimpleProvider(), nil
	}
}

// Describe returns a short name for p suitable for logs and status files
func Describe(p Provider) string {
	switch v := p.(type) {
	case *CustomProvider:
		return v.Identifier()
	case *Instrumented:
		return v.Identifier()
	case *SimpleProvider:
		return strings.ToLower(string(AuthTypeSimple))
	default:
		return fmt.Sprintf("%T", p)
	}
}
