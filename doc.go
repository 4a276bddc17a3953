// Package sdk gives immutable object graphs stable, content-derived
// identity and the machinery to serialize, store, and recompute them by
// that identity.
//
// The package tree:
//
//   - token: the tokenization contract. Types expose their content as
//     fields, derive a process-independent Key from it, and round-trip
//     through deep, shallow, and keyed representations. A weak dedup
//     registry canonicalizes decoding: content-equal graphs come back as
//     the same live instances.
//   - store: hierarchical, content-addressed persistence over pluggable
//     backends (memory, filesystem, Redis, etcd), with CEL selectors for
//     querying stored objects.
//   - work: DAG execution of tokenizable units, with results addressed
//     by the producing unit's Key.
//
// This root package ties them together: self-contained JSON and YAML
// wire documents over the keyed-chain form, and YAML configuration that
// wires remappings and a storage backend.
//
// A minimal participating type:
//
//	type Solvent struct {
//		token.Base
//		name string
//	}
//
//	func (s *Solvent) TypeTag() token.TypeTag {
//		return token.TypeTag{Module: "example.com/chem", Qualname: "Solvent"}
//	}
//	func (s *Solvent) ToFields() token.Fields { return token.Fields{"name": s.name} }
//	func (s *Solvent) Defaults() token.Fields { return nil }
//
// Registered once, it can be shipped across processes and joined back to
// equal content by key:
//
//	data, _ := sdk.MarshalJSON(solvent)
//	same, _ := sdk.UnmarshalJSON(data)
package sdk
