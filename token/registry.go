package token

import (
	"sync"
	"weak"
)

// sweepInterval is the number of insertions between opportunistic sweeps of
// dead registry entries.
const sweepInterval = 256

// Registry is the process-wide deduplicating mapping from Key to a weakly
// held live instance. Decoding consults it to return an existing instance
// instead of creating a content-equal duplicate, which is what gives decode
// its canonicalization property: callers observe identity equality, not
// merely content equality, for independently decoded subgraphs.
//
// Entries are weak: the registry is never the reason an instance stays
// alive. Once all external strong references to an instance are dropped,
// its entry becomes unresolvable and is purged eagerly on the next lookup
// of its key, or by an opportunistic sweep during later insertions.
//
// All methods are safe for concurrent use. The check-and-insert in
// Canonical is a single short critical section, never held across recursive
// decode of nested structures.
type Registry struct {
	mu         sync.Mutex
	entries    map[Key]weak.Pointer[Base]
	sinceSweep int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]weak.Pointer[Base])}
}

// DefaultRegistry is the registry the package-level codec functions use.
var DefaultRegistry = NewRegistry()

// Lookup returns the live instance registered under key, if any. A stale
// entry whose instance has been collected is purged and reported as absent.
func (r *Registry) Lookup(key Key) (Tokenizable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(key)
}

func (r *Registry) lookupLocked(key Key) (Tokenizable, bool) {
	ptr, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	if b := ptr.Value(); b != nil {
		return b.self, true
	}
	delete(r.entries, key)
	return nil, false
}

// Register records t under key. Registration is idempotent: if a live
// instance already holds the key, Register is a no-op and the caller is
// expected to discard its candidate in favor of the existing instance.
func (r *Registry) Register(key Key, t Tokenizable) {
	r.Canonical(key, t)
}

// Canonical atomically performs lookup-then-register for key: if a live
// instance is already registered it is returned and candidate is discarded;
// otherwise candidate is registered and returned. At most one instance ever
// wins a given key against concurrent callers.
//
// candidate must have had its Key derived (KeyOf) before registration.
func (r *Registry) Canonical(key Key, candidate Tokenizable) Tokenizable {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.lookupLocked(key); ok {
		return existing
	}

	// Binds the weak anchor back to the candidate; memoized, so a no-op
	// when the caller already derived the key.
	_, _ = derive(candidate)

	r.entries[key] = weak.Make(candidate.base())
	r.sinceSweep++
	if r.sinceSweep >= sweepInterval {
		r.sweepLocked()
	}
	return candidate
}

// sweepLocked drops every entry whose instance has been collected.
func (r *Registry) sweepLocked() {
	for key, ptr := range r.entries {
		if ptr.Value() == nil {
			delete(r.entries, key)
		}
	}
	r.sinceSweep = 0
}

// Len returns the number of currently live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ptr := range r.entries {
		if ptr.Value() != nil {
			n++
		}
	}
	return n
}

// Clear drops all entries. This is primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[Key]weak.Pointer[Base])
	r.sinceSweep = 0
}

// Lookup returns the live instance registered under key in the
// DefaultRegistry.
func Lookup(key Key) (Tokenizable, bool) {
	return DefaultRegistry.Lookup(key)
}

// Register records t under key in the DefaultRegistry.
func Register(key Key, t Tokenizable) {
	DefaultRegistry.Register(key, t)
}
