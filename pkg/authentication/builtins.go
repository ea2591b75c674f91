package authentication

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Built-in provider identifiers
const (
	PasswdFileProviderName = "passwd-file"
	HTTPAPIProviderName    = "http-api"
	AllowAllProviderName   = "allow-all"
)

// Settings read by the built-in providers
const (
	PasswdFileKey          = "authentication.passwd.file"
	HTTPAPIURLKey          = "authentication.http_api.url"
	HTTPAPITimeoutKey      = "authentication.http_api.timeout"
	HTTPAPIAuthModeKey     = "authentication.http_api.auth_mode"
	HTTPAPIAuthHeaderKey   = "authentication.http_api.auth_header"
	HTTPAPIAuthSecretKey   = "authentication.http_api.auth_secret"
	HTTPAPIInsecureSkipKey = "authentication.http_api.insecure_skip_verify"
)

// RegisterBuiltins registers the bundled providers in reg. The factories
// capture settings and fs, but read them only when invoked, so a provider
// that is never selected never validates its settings.
func RegisterBuiltins(reg *Registry, settings Settings, fs afero.Fs) {
	if settings == nil {
		settings = MapSettings{}
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	reg.RegisterProvider(PasswdFileProviderName, func() (Provider, error) {
		path, _ := settings.Get(PasswdFileKey)
		return NewPasswdFile(fs, strings.TrimSpace(path), nil)
	})
	reg.RegisterAlias("passwd", PasswdFileProviderName)

	reg.RegisterProvider(HTTPAPIProviderName, func() (Provider, error) {
		cfg, err := httpAPIConfigFromSettings(settings)
		if err != nil {
			return nil, err
		}
		return NewHTTPAPIProvider(cfg)
	})
	reg.RegisterAlias("http", HTTPAPIProviderName)

	reg.RegisterProvider(AllowAllProviderName, func() (Provider, error) {
		return NewSimpleProvider(), nil
	})
}

func httpAPIConfigFromSettings(settings Settings) (HTTPAPIConfig, error) {
	var cfg HTTPAPIConfig
	cfg.URL, _ = settings.Get(HTTPAPIURLKey)
	cfg.AuthMode, _ = settings.Get(HTTPAPIAuthModeKey)
	cfg.AuthHeader, _ = settings.Get(HTTPAPIAuthHeaderKey)
	cfg.AuthSecret, _ = settings.Get(HTTPAPIAuthSecretKey)

	if v, ok := settings.Get(HTTPAPITimeoutKey); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", HTTPAPITimeoutKey, err)
		}
		cfg.Timeout = d
	}
	if v, ok := settings.Get(HTTPAPIInsecureSkipKey); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", HTTPAPIInsecureSkipKey, err)
		}
		cfg.InsecureSkipVerify = b
	}
	return cfg, nil
}
