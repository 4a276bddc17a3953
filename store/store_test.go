package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendUnderTest lets the conformance tests run against every local
// backend implementation.
func backendUnderTest(t *testing.T, name string) Backend {
	t.Helper()
	switch name {
	case "memory":
		return NewMemoryBackend()
	case "file":
		b, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)
		return b
	default:
		t.Fatalf("unknown backend %q", name)
		return nil
	}
}

func TestBackendPutGetDelete(t *testing.T) {
	for _, name := range []string{"memory", "file"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := backendUnderTest(t, name)
			defer b.Close()

			require.NoError(t, b.Put(ctx, "runs/alpha/result.json", []byte(`{"ok":true}`)))

			data, err := b.Get(ctx, "runs/alpha/result.json")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"ok":true}`), data)

			require.NoError(t, b.Delete(ctx, "runs/alpha/result.json"))

			_, err = b.Get(ctx, "runs/alpha/result.json")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, b.Delete(ctx, "runs/alpha/result.json"), ErrNotFound)
		})
	}
}

func TestBackendOverwrite(t *testing.T) {
	for _, name := range []string{"memory", "file"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := backendUnderTest(t, name)
			defer b.Close()

			require.NoError(t, b.Put(ctx, "item", []byte("one")))
			require.NoError(t, b.Put(ctx, "item", []byte("two")))

			data, err := b.Get(ctx, "item")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), data)
		})
	}
}

func TestBackendList(t *testing.T) {
	for _, name := range []string{"memory", "file"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := backendUnderTest(t, name)
			defer b.Close()

			for _, loc := range []string{"runs/b/out", "runs/a/out", "meta/info"} {
				require.NoError(t, b.Put(ctx, loc, []byte("x")))
			}

			all, err := b.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"meta/info", "runs/a/out", "runs/b/out"}, all)

			runs, err := b.List(ctx, "runs/")
			require.NoError(t, err)
			assert.Equal(t, []string{"runs/a/out", "runs/b/out"}, runs)

			none, err := b.List(ctx, "missing/")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestBackendRejectsInvalidLocations(t *testing.T) {
	invalid := []string{"", ".", "..", "a//b", "a/../b", "/a", "a/"}

	for _, name := range []string{"memory", "file"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := backendUnderTest(t, name)
			defer b.Close()

			for _, loc := range invalid {
				err := b.Put(ctx, loc, []byte("x"))
				assert.ErrorIs(t, err, ErrInvalidLocation, "location %q", loc)
			}
		})
	}
}

func TestBackendHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewMemoryBackend()
	assert.Error(t, b.Put(ctx, "x", []byte("y")))
	_, err := b.Get(ctx, "x")
	assert.Error(t, err)
}
