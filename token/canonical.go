package token

import (
	"fmt"
	"reflect"
)

// Canonicalize recursively expands t into its fully plain deep
// representation: a mapping carrying the type tag plus every non-default
// field, each value itself canonicalized. Sequences become []any of
// canonicalized elements, string-keyed mappings become map[string]any of
// canonicalized values under unchanged keys, and primitives pass through.
//
// The result contains no live object references and is the hashing input
// for Key derivation.
func Canonicalize(t Tokenizable) (Fields, error) {
	fields, err := contentFields(t)
	if err != nil {
		return nil, err
	}

	out := make(Fields, len(fields)+2)
	tag := t.TypeTag()
	out[fieldModule] = tag.Module
	out[fieldQualname] = tag.Qualname

	for name, value := range fields {
		cv, err := canonicalValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = cv
	}

	return out, nil
}

// contentFields returns t's declared fields with defaults-equal entries
// omitted and reserved names rejected.
func contentFields(t Tokenizable) (Fields, error) {
	fields := t.ToFields()
	defaults := t.Defaults()

	out := make(Fields, len(fields))
	for name, value := range fields {
		if reservedField(name) {
			return nil, newError("token.Canonicalize", KindEncode,
				fmt.Errorf("%w: field name %q is reserved", ErrUnsupportedValue, name))
		}
		if dv, ok := defaults[name]; ok && reflect.DeepEqual(value, dv) {
			continue
		}
		out[name] = value
	}
	return out, nil
}

func canonicalValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	case Tokenizable:
		return Canonicalize(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := canonicalValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newError("token.Canonicalize", KindEncode,
				fmt.Errorf("%w: mapping keys must be strings, got %s", ErrUnsupportedValue, rv.Type().Key()))
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cv, err := canonicalValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = cv
		}
		return out, nil
	}

	return nil, newError("token.Canonicalize", KindEncode,
		fmt.Errorf("%w: %T", ErrUnsupportedValue, v))
}

func reservedField(name string) bool {
	return name == fieldModule || name == fieldQualname || name == keyMarker
}
