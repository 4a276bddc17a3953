package sdk

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stablekey/sdk/store"
	"github.com/stablekey/sdk/token"
)

// Config is the YAML configuration for an application using this SDK.
// It wires two concerns: type remappings, so data serialized under old
// type names keeps decoding after refactors, and the storage backend.
type Config struct {
	// Remappings redirect serialized type references to their current
	// registrations.
	Remappings []RemappingConfig `yaml:"remappings,omitempty"`

	// Store selects and configures the storage backend.
	Store *StoreConfig `yaml:"store,omitempty"`
}

// RemappingConfig redirects one serialized type reference.
type RemappingConfig struct {
	FromModule   string `yaml:"from_module"`
	FromQualname string `yaml:"from_qualname"`
	ToModule     string `yaml:"to_module"`
	ToQualname   string `yaml:"to_qualname"`
}

// StoreConfig selects a storage backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis", or "etcd".
	Backend string `yaml:"backend"`

	// Path is the root directory for the file backend.
	Path string `yaml:"path,omitempty"`

	// URL is the connection string for the redis backend.
	URL string `yaml:"url,omitempty"`

	// Prefix namespaces redis keys.
	Prefix string `yaml:"prefix,omitempty"`

	// Endpoints lists etcd cluster endpoints.
	Endpoints []string `yaml:"endpoints,omitempty"`

	// Namespace prefixes etcd keys.
	Namespace string `yaml:"namespace,omitempty"`

	// ConnectTimeout bounds connection establishment for the remote
	// backends. Format: Go duration string (e.g., "5s"). Default: 5s.
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// GetConnectTimeout parses the connect timeout and returns a duration.
// Returns the default value if not set or invalid.
func (s *StoreConfig) GetConnectTimeout() time.Duration {
	if s == nil || s.ConnectTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(s.ConnectTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// LoadConfig reads and parses a configuration file from the given path.
// If the path is a directory, it looks for stablekey.yaml or stablekey.yml
// in that directory.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sdk: failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "stablekey.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "stablekey.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("sdk: no stablekey.yaml or stablekey.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("sdk: failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("sdk: failed to parse config: %w", err)
	}
	return &config, nil
}

// ApplyRemappings registers every configured remapping with the type
// resolver. Incomplete entries are rejected before any registration
// happens.
func (c *Config) ApplyRemappings() error {
	for _, r := range c.Remappings {
		if r.FromModule == "" || r.FromQualname == "" || r.ToModule == "" || r.ToQualname == "" {
			return fmt.Errorf("sdk: incomplete remapping %+v", r)
		}
	}
	for _, r := range c.Remappings {
		token.RegisterRemapping(
			token.TypeTag{Module: r.FromModule, Qualname: r.FromQualname},
			token.TypeTag{Module: r.ToModule, Qualname: r.ToQualname},
		)
	}
	return nil
}

// OpenBackend builds the configured storage backend. With no store
// section, an in-memory backend is returned.
func (c *Config) OpenBackend() (store.Backend, error) {
	if c.Store == nil {
		return store.NewMemoryBackend(), nil
	}

	switch c.Store.Backend {
	case "", "memory":
		return store.NewMemoryBackend(), nil
	case "file":
		if c.Store.Path == "" {
			return nil, fmt.Errorf("sdk: file backend requires a path")
		}
		return store.NewFileBackend(c.Store.Path)
	case "redis":
		return store.NewRedisBackend(store.RedisOptions{
			URL:            c.Store.URL,
			Prefix:         c.Store.Prefix,
			ConnectTimeout: c.Store.GetConnectTimeout(),
		})
	case "etcd":
		return store.NewEtcdBackend(store.EtcdOptions{
			Endpoints:   c.Store.Endpoints,
			Namespace:   c.Store.Namespace,
			DialTimeout: c.Store.GetConnectTimeout(),
		})
	default:
		return nil, fmt.Errorf("sdk: unknown store backend %q", c.Store.Backend)
	}
}

// Open applies the configured remappings and builds a store client over
// the configured backend.
func (c *Config) Open() (*store.Client, error) {
	if err := c.ApplyRemappings(); err != nil {
		return nil, err
	}
	backend, err := c.OpenBackend()
	if err != nil {
		return nil, err
	}
	return store.New(backend), nil
}
