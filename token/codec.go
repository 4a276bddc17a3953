package token

import (
	"fmt"
	"reflect"
)

// Reserved fields within any encoded Tokenizable mapping.
const (
	fieldModule   = "__module__"
	fieldQualname = "__qualname__"

	// keyMarker is the single field of the reference marker mapping that
	// replaces a nested Tokenizable in keyed representations.
	keyMarker = ":key:"
)

// KeySource supplies out-of-band content for key references that are not
// live in the dedup registry, e.g. a companion content-addressed store.
type KeySource interface {
	// Load returns the Tokenizable whose derived Key is key.
	Load(key Key) (Tokenizable, error)
}

// ToDeep encodes t as its fully expanded canonical plain representation.
// The result is self-contained: no live references or key markers remain,
// and FromDeep needs nothing beyond the representation itself.
//
// Encoding derives the instance's Key, which registers it weakly in the
// DefaultRegistry; the same holds for ToShallow and ToKeyed.
func ToDeep(t Tokenizable) (Fields, error) {
	if _, err := KeyOf(t); err != nil {
		return nil, err
	}
	return Canonicalize(t)
}

// FromDeep reconstructs a Tokenizable from a deep representation. Every
// reconstructed node, nested ones included, is canonicalized against the
// dedup registry: if an instance with the same derived Key is already live,
// the existing instance is returned and the fresh one discarded.
func FromDeep(m Fields) (Tokenizable, error) {
	const op = "token.FromDeep"

	tag, content, err := splitTag(op, m)
	if err != nil {
		return nil, err
	}

	fields := make(Fields, len(content))
	for name, value := range content {
		dv, err := fromDeepValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = dv
	}

	return rebuild(op, tag, fields)
}

func fromDeepValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if isKeyMarker(val) {
			return nil, newError("token.FromDeep", KindMalformed,
				fmt.Errorf("%w: key marker inside a deep representation", ErrMalformedRepresentation))
		}
		if hasTag(val) {
			return FromDeep(val)
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dv, err := fromDeepValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			dv, err := fromDeepValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return v, nil
	}
}

// ToShallow encodes t one level deep: containers are walked, but nested
// Tokenizables are left in place as live instance references. The result is
// only meaningful within the producing process.
func ToShallow(t Tokenizable) (Fields, error) {
	const op = "token.ToShallow"

	if _, err := KeyOf(t); err != nil {
		return nil, err
	}

	content, err := contentFields(t)
	if err != nil {
		return nil, err
	}

	out := tagFields(t.TypeTag(), len(content))
	for name, value := range content {
		sv, err := shallowValue(op, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = sv
	}
	return out, nil
}

// FromShallow reconstructs a Tokenizable from a shallow representation.
// Nested fields are live instances supplied by the caller and need no
// registry lookups, but the top-level reconstructed instance is still
// registered and canonicalized.
func FromShallow(m Fields) (Tokenizable, error) {
	const op = "token.FromShallow"

	tag, content, err := splitTag(op, m)
	if err != nil {
		return nil, err
	}

	return rebuild(op, tag, content)
}

// ToKeyed encodes t one level deep, replacing every nested Tokenizable,
// directly held or reached through containers, by a reference marker
// carrying only its derived Key. Repeated occurrences of the same nested
// object emit the same marker and no expansion.
func ToKeyed(t Tokenizable) (Fields, error) {
	const op = "token.ToKeyed"

	if _, err := KeyOf(t); err != nil {
		return nil, err
	}

	content, err := contentFields(t)
	if err != nil {
		return nil, err
	}

	out := tagFields(t.TypeTag(), len(content))
	for name, value := range content {
		kv, err := keyedValue(op, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = kv
	}
	return out, nil
}

// FromKeyed reconstructs a Tokenizable from a keyed representation. Key
// markers resolve against the dedup registry first, then against src when
// non-nil. A marker that resolves nowhere fails with ErrUnresolvedReference:
// keyed form only round-trips when the referenced sub-objects are supplied
// from elsewhere (see Chain, or a companion store).
func FromKeyed(m Fields, src KeySource) (Tokenizable, error) {
	const op = "token.FromKeyed"

	tag, content, err := splitTag(op, m)
	if err != nil {
		return nil, err
	}

	fields := make(Fields, len(content))
	for name, value := range content {
		dv, err := fromKeyedValue(value, src)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = dv
	}

	return rebuild(op, tag, fields)
}

func fromKeyedValue(v any, src KeySource) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if isKeyMarker(val) {
			ref, ok := val[keyMarker].(string)
			if !ok {
				return nil, newError("token.FromKeyed", KindMalformed,
					fmt.Errorf("%w: key marker value must be a string", ErrMalformedRepresentation))
			}
			return resolveKey(Key(ref), src)
		}
		if hasTag(val) {
			return nil, newError("token.FromKeyed", KindMalformed,
				fmt.Errorf("%w: expanded object inside a keyed representation", ErrMalformedRepresentation))
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dv, err := fromKeyedValue(elem, src)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			dv, err := fromKeyedValue(elem, src)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveKey(key Key, src KeySource) (Tokenizable, error) {
	if live, ok := DefaultRegistry.Lookup(key); ok {
		return live, nil
	}
	if src != nil {
		t, err := src.Load(key)
		if err == nil && t != nil {
			return t, nil
		}
	}
	return nil, newError("token.FromKeyed", KindUnresolved,
		fmt.Errorf("%w: %s", ErrUnresolvedReference, key))
}

func shallowValue(op string, v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	case Tokenizable:
		return val, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			sv, err := shallowValue(op, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newError(op, KindEncode,
				fmt.Errorf("%w: mapping keys must be strings, got %s", ErrUnsupportedValue, rv.Type().Key()))
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			sv, err := shallowValue(op, iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = sv
		}
		return out, nil
	}

	return nil, newError(op, KindEncode, fmt.Errorf("%w: %T", ErrUnsupportedValue, v))
}

func keyedValue(op string, v any) (any, error) {
	if t, ok := v.(Tokenizable); ok {
		key, err := KeyOf(t)
		if err != nil {
			return nil, err
		}
		return map[string]any{keyMarker: key.String()}, nil
	}

	sv, err := shallowValue(op, v)
	if err != nil {
		return nil, err
	}
	return replaceTokenizables(sv)
}

// replaceTokenizables swaps live instances inside already-walked containers
// for their key markers.
func replaceTokenizables(v any) (any, error) {
	switch val := v.(type) {
	case Tokenizable:
		key, err := KeyOf(val)
		if err != nil {
			return nil, err
		}
		return map[string]any{keyMarker: key.String()}, nil
	case []any:
		for i, elem := range val {
			rv, err := replaceTokenizables(elem)
			if err != nil {
				return nil, err
			}
			val[i] = rv
		}
		return val, nil
	case map[string]any:
		for k, elem := range val {
			rv, err := replaceTokenizables(elem)
			if err != nil {
				return nil, err
			}
			val[k] = rv
		}
		return val, nil
	default:
		return v, nil
	}
}

// rebuild resolves the factory for tag, reconstructs a candidate, and
// canonicalizes it against the dedup registry.
func rebuild(op string, tag TypeTag, fields Fields) (Tokenizable, error) {
	factory, err := Resolve(tag)
	if err != nil {
		return nil, err
	}

	candidate, err := factory(fields)
	if err != nil {
		return nil, newError(op, KindMalformed,
			fmt.Errorf("rebuilding %q: %w", tag, err))
	}

	key, err := KeyOf(candidate)
	if err != nil {
		return nil, err
	}
	return DefaultRegistry.Canonical(key, candidate), nil
}

func tagFields(tag TypeTag, n int) Fields {
	out := make(Fields, n+2)
	out[fieldModule] = tag.Module
	out[fieldQualname] = tag.Qualname
	return out
}

// splitTag extracts the type tag from an encoded mapping, returning the
// remaining content fields.
func splitTag(op string, m Fields) (TypeTag, Fields, error) {
	module, mok := m[fieldModule].(string)
	qualname, qok := m[fieldQualname].(string)
	if !mok || !qok {
		return TypeTag{}, nil, newError(op, KindMalformed,
			fmt.Errorf("%w: missing type tag fields", ErrMalformedRepresentation))
	}

	content := make(Fields, len(m)-2)
	for name, value := range m {
		if name == fieldModule || name == fieldQualname {
			continue
		}
		content[name] = value
	}
	return TypeTag{Module: module, Qualname: qualname}, content, nil
}

func hasTag(m map[string]any) bool {
	_, mok := m[fieldModule]
	_, qok := m[fieldQualname]
	return mok && qok
}

func isKeyMarker(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m[keyMarker]
	return ok
}
