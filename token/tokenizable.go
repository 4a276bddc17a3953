package token

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Fields is the flat mapping of field name to value that a Tokenizable
// exposes as its content. Values may be primitives, ordered sequences,
// string-keyed mappings, or nested Tokenizables, arbitrarily nested within
// sequences and mappings.
type Fields = map[string]any

// TypeTag identifies the originating type of an encoded value by its module
// path and qualified name. Qualified names of types nested within types use
// dot-separated components (e.g. "Outer.Inner").
type TypeTag struct {
	Module   string
	Qualname string
}

// String returns the tag in "module:qualname" form.
func (t TypeTag) String() string {
	return t.Module + ":" + t.Qualname
}

// IsZero reports whether either component of the tag is empty.
func (t TypeTag) IsZero() bool {
	return t.Module == "" || t.Qualname == ""
}

// Tokenizable is the contract every participating type implements.
//
// Implementations must embed Base, expose their declared content through
// ToFields, and register a Factory for their TypeTag with RegisterType so
// encoded representations can be decoded back. Content must be immutable
// after construction: the derived Key is memoized per instance and assumed
// valid for the life of the instance.
//
// ToFields and Defaults must be pure functions over field data with no side
// effects. Two Tokenizables are content-equal iff their exposed field sets
// are recursively content-equal; equality never depends on identity or on
// the derived Key (see Equal).
type Tokenizable interface {
	// TypeTag returns the (module, qualname) pair identifying this type.
	TypeTag() TypeTag

	// ToFields returns this instance's declared content.
	ToFields() Fields

	// Defaults returns the per-type mapping from field name to its default
	// value. Fields equal to their listed default may be omitted from any
	// encoded representation; decode restores them. Types without defaults
	// return nil.
	Defaults() Fields

	base() *Base
}

// Factory rebuilds an instance from a previously produced field mapping.
// It must be inverse to ToFields up to content equality. Fields omitted as
// defaults are absent from the mapping; the factory fills them back in.
type Factory func(Fields) (Tokenizable, error)

// Base carries the per-instance bookkeeping of the Tokenizable contract:
// the memoized derived Key and the anchor the dedup registry holds weakly.
// Participating types embed it by value:
//
//	type Solvent struct {
//		token.Base
//		Name string
//	}
//
// The zero value is ready to use.
type Base struct {
	once sync.Once
	self Tokenizable
	key  Key
	err  error
}

func (b *Base) base() *Base { return b }

// KeyOf derives the stable content-based Key for t, memoizing the result on
// the instance. The Key is computed over the deep canonical representation,
// so equal content always yields equal Keys regardless of process, field
// declaration order, or how the graph was constructed.
//
// Deriving a key also records the instance in the DefaultRegistry (weakly,
// and idempotently: an already-live holder of the key is left in place), so
// that any object whose identity has become visible is resolvable by later
// decodes.
func KeyOf(t Tokenizable) (Key, error) {
	key, err := derive(t)
	if err != nil {
		return "", err
	}
	DefaultRegistry.Register(key, t)
	return key, nil
}

// derive computes and memoizes the key without touching any registry.
func derive(t Tokenizable) (Key, error) {
	b := t.base()
	b.once.Do(func() {
		b.self = t
		canonical, err := Canonicalize(t)
		if err != nil {
			b.err = err
			return
		}
		b.key, b.err = deriveKey(t.TypeTag(), canonical)
	})
	return b.key, b.err
}

// Equal reports content equality between two Tokenizables: both canonical
// deep representations must serialize identically. Comparing the serialized
// canonical forms rather than the in-memory values keeps equality stable
// across wire round-trips that widen numeric types. Equal never compares
// identity or derived Keys; values whose content cannot be canonicalized
// compare unequal.
func Equal(a, b Tokenizable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, err := Canonicalize(a)
	if err != nil {
		return false
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return false
	}
	da, err := json.Marshal(ca)
	if err != nil {
		return false
	}
	db, err := json.Marshal(cb)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}
