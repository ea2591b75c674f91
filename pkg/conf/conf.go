// Package conf holds server settings as a flat set of dotted keys, e.g.
// "server.port" or "authentication.provider.custom.class".
//
// Values come from a YAML (or JSON) file whose nested maps are flattened,
// then from CFTPD_* environment variables, then from explicit Set calls.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: server.port -> CFTPD_SERVER_PORT
const EnvPrefix = "CFTPD_"

// Conf is a concurrency-safe key/value store
type Conf struct {
	mu     sync.RWMutex
	values map[string]string
	dir    string // directory of the loaded file, for relative paths
}

// New returns a Conf holding the defaults
func New() *Conf {
	c := &Conf{values: make(map[string]string)}
	for k, v := range defaults {
		c.values[k] = v
	}
	return c
}

// Load reads path from fs, applies environment overrides and resolves
// relative paths against the file's directory.
func Load(fs afero.Fs, path string) (*Conf, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c := New()
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	c.ApplyEnv(os.Environ())

	c.dir = filepath.Dir(path)
	c.resolvePaths()
	return c, nil
}

// merge flattens a YAML document into the store
func (c *Conf) merge(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	flat := make(map[string]string)
	if err := flatten("", doc, flat); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range flat {
		c.values[k] = v
	}
	return nil
}

func flatten(prefix string, v interface{}, out map[string]string) error {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			if err := flatten(joinKey(prefix, k), child, out); err != nil {
				return err
			}
		}
	case map[interface{}]interface{}:
		for k, child := range val {
			if err := flatten(joinKey(prefix, fmt.Sprint(k)), child, out); err != nil {
				return err
			}
		}
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			switch item.(type) {
			case map[string]interface{}, map[interface{}]interface{}, []interface{}:
				return fmt.Errorf("%s: nested lists and maps inside lists are not supported", prefix)
			}
			parts = append(parts, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(val)
	}
	return nil
}

func joinKey(prefix, key string) string {
	key = strings.ToLower(key)
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ApplyEnv applies CFTPD_* entries from environ (KEY=value form)
func (c *Conf) ApplyEnv(environ []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		c.values[envKey(name)] = value
	}
}

// envKey maps CFTPD_SERVER_PORT to server.port. Keys containing underscores
// (e.g. server.listen_addr) use a double underscore: CFTPD_SERVER_LISTEN__ADDR.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", "\x00")
	key = strings.ReplaceAll(key, "_", ".")
	return strings.ReplaceAll(key, "\x00", "_")
}

// resolvePaths makes path-valued keys absolute relative to the config file
func (c *Conf) resolvePaths() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range pathKeys {
		v := c.values[key]
		if v == "" || filepath.IsAbs(v) {
			continue
		}
		c.values[key] = filepath.Join(c.dir, v)
	}

	// plugin:relative/path.so identifiers are resolved the same way
	if id := strings.TrimSpace(c.values[KeyCustomProviderClass]); strings.HasPrefix(id, "plugin:") {
		path := strings.TrimPrefix(id, "plugin:")
		if path != "" && !filepath.IsAbs(path) && !strings.HasPrefix(path, "#") {
			c.values[KeyCustomProviderClass] = "plugin:" + filepath.Join(c.dir, path)
		}
	}
}

// Get implements authentication.Settings
func (c *Conf) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value
func (c *Conf) Set(key, value string) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// GetString returns the value for key or def when unset or empty
func (c *Conf) GetString(key, def string) string {
	if v, ok := c.Get(key); ok && v != "" {
		return v
	}
	return def
}

// GetInt parses the value for key as an integer
func (c *Conf) GetInt(key string, def int) (int, error) {
	v, ok := c.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// GetBool parses the value for key as a boolean
func (c *Conf) GetBool(key string, def bool) (bool, error) {
	v, ok := c.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// GetDuration parses the value for key as a duration. A bare integer is taken as seconds.
func (c *Conf) GetDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := c.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Keys returns all keys, sorted
func (c *Conf) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
