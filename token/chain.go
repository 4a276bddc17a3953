package token

import (
	"fmt"
	"reflect"
)

// Record is one link of a Chain: a derived Key paired with the keyed
// representation of the object it names.
type Record struct {
	Key    string `json:"key" yaml:"key"`
	Fields Fields `json:"fields" yaml:"fields"`
}

// Chain is a self-contained keyed serialization of a whole content graph:
// an ordered sequence of keyed records in which every referenced Key
// appears as an earlier record. Repeated occurrences of the same nested
// object emit exactly one record, so shared subgraphs stay shared through a
// round-trip.
//
// Chain is the wire form used for persistence: unlike a bare keyed
// representation it decodes with no external KeySource, and unlike a deep
// representation it deduplicates repeated content.
type Chain []Record

// NewChain encodes t and its transitive content graph dependency-first; the
// final record is t itself.
func NewChain(t Tokenizable) (Chain, error) {
	var (
		chain Chain
		seen  = make(map[Key]bool)
	)
	if err := appendChain(&chain, seen, t); err != nil {
		return nil, err
	}
	return chain, nil
}

func appendChain(chain *Chain, seen map[Key]bool, t Tokenizable) error {
	key, err := KeyOf(t)
	if err != nil {
		return err
	}
	if seen[key] {
		return nil
	}
	// Mark before descending: the content graph is assumed acyclic, but a
	// repeated diamond dependency must still emit once.
	seen[key] = true

	content, err := contentFields(t)
	if err != nil {
		return err
	}
	for _, value := range content {
		if err := appendNested(chain, seen, value); err != nil {
			return err
		}
	}

	keyed, err := ToKeyed(t)
	if err != nil {
		return err
	}
	*chain = append(*chain, Record{Key: key.String(), Fields: keyed})
	return nil
}

func appendNested(chain *Chain, seen map[Key]bool, v any) error {
	if t, ok := v.(Tokenizable); ok {
		return appendChain(chain, seen, t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := appendNested(chain, seen, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := appendNested(chain, seen, iter.Value().Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode replays the chain in order, each record resolving its references
// against the records decoded before it, and returns the final record's
// instance. Decoded instances are canonicalized against the dedup registry
// as usual.
func (c Chain) Decode() (Tokenizable, error) {
	const op = "token.Chain.Decode"

	if len(c) == 0 {
		return nil, newError(op, KindMalformed,
			fmt.Errorf("%w: empty chain", ErrMalformedRepresentation))
	}

	local := chainSource{decoded: make(map[Key]Tokenizable, len(c))}
	var last Tokenizable
	for i, rec := range c {
		t, err := FromKeyed(rec.Fields, local)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Key, err)
		}
		local.decoded[Key(rec.Key)] = t
		last = t
	}
	return last, nil
}

// chainSource resolves keys against the records already decoded from the
// same chain.
type chainSource struct {
	decoded map[Key]Tokenizable
}

func (s chainSource) Load(key Key) (Tokenizable, error) {
	if t, ok := s.decoded[key]; ok {
		return t, nil
	}
	return nil, newError("token.Chain.Decode", KindUnresolved,
		fmt.Errorf("%w: %s not among earlier records", ErrUnresolvedReference, key))
}
