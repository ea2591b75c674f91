package authentication

import (
	"errors"
	"fmt"
	"plugin"
	"strings"
)

const (
	// PluginScheme prefixes identifiers that name a Go plugin instead of a registered provider,
	// e.g. "plugin:/opt/cftpd/ldap.so#NewProvider".
	PluginScheme = "plugin:"

	// DefaultPluginSymbol is looked up when the identifier has no #Symbol suffix
	DefaultPluginSymbol = "NewProvider"
)

// pluginFactoryCapability describes what an exported plugin symbol must be
const pluginFactoryCapability = "func() (Provider, error) or func() Provider"

// lookupPluginSymbol opens the plugin at path and returns symbol
var lookupPluginSymbol = func(path, symbol string) (any, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p.Lookup(symbol)
}

func parsePluginIdentifier(identifier string) (path, symbol string, err error) {
	rest := strings.TrimPrefix(identifier, PluginScheme)
	path, symbol, _ = strings.Cut(rest, "#")
	if path == "" {
		return "", "", errors.New("plugin path is empty")
	}
	if symbol == "" {
		symbol = DefaultPluginSymbol
	}
	return path, symbol, nil
}

// openPluginFactory loads a Go plugin and checks that its exported symbol is a
// provider factory. The symbol is never called here, so a plugin that does not
// produce a Provider is rejected before any of its construction code runs.
func openPluginFactory(identifier string) (Factory, error) {
	path, symbol, err := parsePluginIdentifier(identifier)
	if err != nil {
		return nil, &ResolutionError{Identifier: identifier, Err: err}
	}

	sym, err := lookupPluginSymbol(path, symbol)
	if err != nil {
		return nil, &ResolutionError{Identifier: identifier, Err: err}
	}

	f, ok := factoryFromSymbol(sym)
	if !ok {
		return nil, &ConformanceError{
			Identifier: identifier,
			Type:       fmt.Sprintf("%T", sym),
			Capability: pluginFactoryCapability,
		}
	}
	return f, nil
}

// factoryFromSymbol accepts exported functions, or pointers to exported
// function variables, whose result type is Provider.
func factoryFromSymbol(sym any) (Factory, bool) {
	switch fn := sym.(type) {
	case Factory:
		return fn, fn != nil
	case *Factory:
		return *fn, *fn != nil
	case func() (Provider, error):
		return fn, fn != nil
	case *func() (Provider, error):
		return *fn, *fn != nil
	case func() Provider:
		return adaptConstructor(fn), fn != nil
	case *func() Provider:
		return adaptConstructor(*fn), *fn != nil
	}
	return nil, false
}

func adaptConstructor(fn func() Provider) Factory {
	return func() (Provider, error) { return fn(), nil }
}
