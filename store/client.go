package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stablekey/sdk/token"
)

// objectPrefix is where Client persists whole object graphs, one keyed
// chain per derived Key.
const objectPrefix = "objects/"

// Client provides hierarchical, content-addressed access to a Backend.
//
// Byte artifacts live under nested Scopes whose path components come from
// strings or from Tokenizables; a Tokenizable's component is its derived
// Key, which is stable across processes for equal content. Whole object
// graphs are persisted as self-contained keyed chains and can be loaded
// back by Key, so a populated Client serves as a token.KeySource for keyed
// decoding.
type Client struct {
	backend Backend
	logger  *slog.Logger
	root    *Scope
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used by the client. If not
// provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client over the given backend.
func New(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.root = &Scope{client: c, children: make(map[string]*Scope)}
	return c
}

// Backend returns the underlying byte store.
func (c *Client) Backend() Backend { return c.backend }

// Scope descends from the root into the named child scope.
func (c *Client) Scope(component any) (*Scope, error) {
	return c.root.Scope(component)
}

// Close closes the underlying backend.
func (c *Client) Close() error { return c.backend.Close() }

// PutObject persists t's whole content graph as a keyed chain under its
// derived Key and returns that Key. Storing the same content twice
// overwrites an identical record, so PutObject is idempotent.
func (c *Client) PutObject(ctx context.Context, t token.Tokenizable) (token.Key, error) {
	key, err := token.KeyOf(t)
	if err != nil {
		return "", err
	}

	chain, err := token.NewChain(t)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(chain)
	if err != nil {
		return "", fmt.Errorf("store: encoding object %s: %w", key, err)
	}

	if err := c.backend.Put(ctx, objectPrefix+key.String(), data); err != nil {
		return "", err
	}

	c.logger.Debug("stored object", "key", key.String(), "records", len(chain))
	return key, nil
}

// GetObject loads the object graph stored under key. A live instance with
// that key short-circuits the backend entirely; otherwise the stored chain
// is decoded, which canonicalizes every node against the dedup registry.
func (c *Client) GetObject(ctx context.Context, key token.Key) (token.Tokenizable, error) {
	if live, ok := token.Lookup(key); ok {
		return live, nil
	}

	data, err := c.backend.Get(ctx, objectPrefix+key.String())
	if err != nil {
		return nil, err
	}

	var chain token.Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("store: decoding object %s: %w", key, err)
	}
	return chain.Decode()
}

// DeleteObject removes the stored graph for key. Live instances are
// unaffected.
func (c *Client) DeleteObject(ctx context.Context, key token.Key) error {
	return c.backend.Delete(ctx, objectPrefix+key.String())
}

// ListObjects returns the Keys of all stored objects, sorted.
func (c *Client) ListObjects(ctx context.Context) ([]token.Key, error) {
	locations, err := c.backend.List(ctx, objectPrefix)
	if err != nil {
		return nil, err
	}
	keys := make([]token.Key, 0, len(locations))
	for _, location := range locations {
		keys = append(keys, token.Key(strings.TrimPrefix(location, objectPrefix)))
	}
	return keys, nil
}

// Find returns every stored object whose canonical representation matches
// the selector.
func (c *Client) Find(ctx context.Context, sel *Selector) ([]token.Tokenizable, error) {
	keys, err := c.ListObjects(ctx)
	if err != nil {
		return nil, err
	}

	var out []token.Tokenizable
	for _, key := range keys {
		obj, err := c.GetObject(ctx, key)
		if err != nil {
			return nil, err
		}
		ok, err := sel.Match(obj)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Load implements token.KeySource over the stored objects, so a Client can
// resolve key markers during keyed decoding. The background context is
// used; callers needing cancellation should use GetObject directly.
func (c *Client) Load(key token.Key) (token.Tokenizable, error) {
	return c.GetObject(context.Background(), key)
}

// Scope represents all data under one level of the store hierarchy.
// Child scopes are cached per component.
type Scope struct {
	client *Client
	path   string

	mu       sync.Mutex
	children map[string]*Scope
}

// pathComponent converts a scope component to its path string. A
// Tokenizable always contributes its derived Key: the Key exists precisely
// so that path components are equal across processes for equal content.
func pathComponent(component any) (string, error) {
	switch v := component.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: empty path component", ErrInvalidLocation)
		}
		return v, nil
	case token.Tokenizable:
		key, err := token.KeyOf(v)
		if err != nil {
			return "", err
		}
		return key.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: unsupported path component %T", ErrInvalidLocation, component)
	}
}

// Scope descends one level. component may be a string, a fmt.Stringer, or
// a Tokenizable (addressed by derived Key).
func (s *Scope) Scope(component any) (*Scope, error) {
	part, err := pathComponent(component)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if child, ok := s.children[part]; ok {
		return child, nil
	}

	child := &Scope{
		client:   s.client,
		path:     s.join(part),
		children: make(map[string]*Scope),
	}
	s.children[part] = child
	return child, nil
}

// Path returns this scope's slash-joined location prefix.
func (s *Scope) Path() string { return s.path }

func (s *Scope) join(part string) string {
	if s.path == "" {
		return part
	}
	return s.path + "/" + part
}

// Put stores a named byte artifact in this scope.
func (s *Scope) Put(ctx context.Context, name string, data []byte) error {
	if err := validLocation(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}
	return s.client.backend.Put(ctx, s.join(name), data)
}

// Get returns the named byte artifact from this scope.
func (s *Scope) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validLocation(name); err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}
	return s.client.backend.Get(ctx, s.join(name))
}

// Delete removes the named byte artifact from this scope.
func (s *Scope) Delete(ctx context.Context, name string) error {
	if err := validLocation(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}
	return s.client.backend.Delete(ctx, s.join(name))
}

// List returns every location under this scope, sorted.
func (s *Scope) List(ctx context.Context) ([]string, error) {
	prefix := s.path
	if prefix != "" {
		prefix += "/"
	}
	return s.client.backend.List(ctx, prefix)
}
