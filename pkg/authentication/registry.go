package authentication

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a provider without arguments. Its result type is
// Provider, so a registered factory cannot produce anything that lacks
// Authenticate.
type Factory func() (Provider, error)

// Registry maps provider identifiers to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string // alias -> canonical name
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
	}
}

// RegisterProvider makes a provider factory available under name.
// It panics if name is empty, factory is nil, or name is already taken.
func (r *Registry) RegisterProvider(name string, factory Factory) {
	if strings.TrimSpace(name) == "" {
		panic("authentication: RegisterProvider with empty provider name")
	}
	if strings.HasPrefix(name, PluginScheme) {
		panic("authentication: RegisterProvider name " + name + " uses the reserved plugin scheme")
	}
	if factory == nil {
		panic("authentication: RegisterProvider factory is nil for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic("authentication: RegisterProvider called twice for provider " + name)
	}
	if _, dup := r.aliases[name]; dup {
		panic("authentication: RegisterProvider name " + name + " is already an alias")
	}
	r.factories[name] = factory
}

// RegisterAlias registers an alternative name for an already registered provider
func (r *Registry) RegisterAlias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[canonical]; !ok {
		panic(fmt.Sprintf("authentication: RegisterAlias %q for unknown provider %q", alias, canonical))
	}
	if _, dup := r.factories[alias]; dup {
		panic("authentication: RegisterAlias " + alias + " collides with a provider name")
	}
	r.aliases[alias] = canonical
}

// Lookup returns the factory registered under name or one of its aliases
func (r *Registry) Lookup(name string) (Factory, bool) {
	_, f, ok := r.lookup(name)
	return f, ok
}

// lookup also returns the canonical name the factory is registered under
func (r *Registry) lookup(name string) (string, Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.factories[name]; ok {
		return name, f, true
	}
	if canonical, ok := r.aliases[name]; ok {
		f, ok := r.factories[canonical]
		return canonical, f, ok
	}
	return "", nil, false
}

// Names returns the canonical names of all registered providers, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns the aliases registered for canonical, sorted
func (r *Registry) Aliases(canonical string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for alias, name := range r.aliases {
		if name == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of r. Registering in the copy leaves r unchanged.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for name, f := range r.factories {
		c.factories[name] = f
	}
	for alias, name := range r.aliases {
		c.aliases[alias] = name
	}
	return c
}

// resolve turns an identifier into its canonical name and factory, consulting
// plugins for plugin: identifiers. A plugin identifier is its own canonical name.
func (r *Registry) resolve(identifier string) (string, Factory, error) {
	if strings.HasPrefix(identifier, PluginScheme) {
		f, err := openPluginFactory(identifier)
		if err != nil {
			return "", nil, err
		}
		return identifier, f, nil
	}
	canonical, f, ok := r.lookup(identifier)
	if !ok {
		return "", nil, &ResolutionError{Identifier: identifier}
	}
	return canonical, f, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when none is given
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterProvider adds a factory to the default registry
func RegisterProvider(name string, factory Factory) {
	defaultRegistry.RegisterProvider(name, factory)
}

// RegisterAlias adds an alias to the default registry
func RegisterAlias(alias, canonical string) {
	defaultRegistry.RegisterAlias(alias, canonical)
}

// Lookup searches the default registry
func Lookup(name string) (Factory, bool) {
	return defaultRegistry.Lookup(name)
}

// Names lists the default registry
func Names() []string {
	return defaultRegistry.Names()
}
