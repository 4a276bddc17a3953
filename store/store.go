package store

import (
	"context"
	"errors"
	"strings"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned when a requested location or object does not
	// exist in the store.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidLocation is returned when a location or path component is
	// empty or otherwise invalid.
	ErrInvalidLocation = errors.New("store: invalid location")
)

// Backend is the byte-oriented storage contract the store is built on.
// Locations are slash-separated relative paths. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Put stores data at location, replacing any previous content.
	Put(ctx context.Context, location string, data []byte) error

	// Get returns the content at location, or ErrNotFound.
	Get(ctx context.Context, location string) ([]byte, error)

	// Delete removes the content at location, or returns ErrNotFound.
	Delete(ctx context.Context, location string) error

	// List returns all locations with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// validLocation rejects empty locations and path traversal.
func validLocation(location string) error {
	if location == "" {
		return ErrInvalidLocation
	}
	for _, part := range strings.Split(location, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidLocation
		}
	}
	return nil
}
