package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOptions configures the etcd backend connection.
type EtcdOptions struct {
	// Endpoints is the list of etcd cluster endpoints.
	Endpoints []string

	// Namespace prefixes every stored location. Default: "store".
	Namespace string

	// DialTimeout is the maximum time to wait for connection
	// establishment. Default: 5s.
	DialTimeout time.Duration
}

// EtcdBackend implements Backend on an etcd cluster. Stored content is
// addressed as "<namespace>/<location>".
type EtcdBackend struct {
	client    *clientv3.Client
	namespace string
}

// NewEtcdBackend creates an etcd backend from the provided options.
func NewEtcdBackend(opts EtcdOptions) (*EtcdBackend, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("store: etcd endpoints cannot be empty")
	}
	if opts.Namespace == "" {
		opts.Namespace = "store"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to create etcd client: %w", err)
	}

	return &EtcdBackend{client: cli, namespace: opts.Namespace}, nil
}

func (e *EtcdBackend) key(location string) string {
	return e.namespace + "/" + location
}

// Put stores data at location.
func (e *EtcdBackend) Put(ctx context.Context, location string, data []byte) error {
	if err := validLocation(location); err != nil {
		return fmt.Errorf("%w: %q", err, location)
	}
	if _, err := e.client.Put(ctx, e.key(location), string(data)); err != nil {
		return fmt.Errorf("store: failed to put %q: %w", location, err)
	}
	return nil
}

// Get returns the content at location.
func (e *EtcdBackend) Get(ctx context.Context, location string) ([]byte, error) {
	resp, err := e.client.Get(ctx, e.key(location))
	if err != nil {
		return nil, fmt.Errorf("store: failed to get %q: %w", location, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	return resp.Kvs[0].Value, nil
}

// Delete removes the content at location.
func (e *EtcdBackend) Delete(ctx context.Context, location string) error {
	resp, err := e.client.Delete(ctx, e.key(location))
	if err != nil {
		return fmt.Errorf("store: failed to delete %q: %w", location, err)
	}
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	return nil
}

// List returns all locations with the given prefix, sorted.
func (e *EtcdBackend) List(ctx context.Context, prefix string) ([]string, error) {
	resp, err := e.client.Get(ctx, e.key(prefix), clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("store: failed to list %q: %w", prefix, err)
	}

	trim := e.namespace + "/"
	out := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out = append(out, strings.TrimPrefix(string(kv.Key), trim))
	}
	sort.Strings(out)
	return out, nil
}

// Close closes the etcd connection.
func (e *EtcdBackend) Close() error {
	return e.client.Close()
}
