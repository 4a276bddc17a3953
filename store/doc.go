// Package store provides hierarchical, content-addressed persistence for
// tokenizable object graphs and their byte artifacts.
//
// Locations are slash-separated paths. Whenever a path component is derived
// from a Tokenizable, it is the object's stable content-based Key, never a
// volatile runtime hash, so equal content maps to equal locations across
// processes and sessions.
//
// Storage is pluggable through the Backend interface; in-memory, local
// filesystem, Redis, and etcd implementations are provided. On top of a
// Backend, Client persists whole object graphs as self-contained keyed
// chains and resolves stored keys on demand, making a populated Client a
// token.KeySource for keyed decoding. Selector filters stored objects with
// CEL expressions evaluated against their canonical representations.
package store
