// Package token gives immutable object graphs a stable, process-independent
// identity.
//
// A type participates by implementing the Tokenizable contract: it exposes
// its content as a flat mapping of field name to value, declares default
// values that may be omitted from encoded forms, and registers a factory
// under its (module, qualified name) pair. From that contract the package
// derives a deterministic, content-based Key for every instance, so that
// equal objects built in different processes at different times collapse to
// the same logical entity for caching, deduplication, and content-addressed
// persistence.
//
// # Representations
//
// Three encode/decode pairs are built on the contract:
//
//   - Deep (ToDeep/FromDeep): fully expanded plain values, self-contained.
//   - Shallow (ToShallow/FromShallow): nested Tokenizables stay live
//     instance references.
//   - Keyed (ToKeyed/FromKeyed): nested Tokenizables are replaced by a
//     {":key:": "<Key>"} marker and must be resolvable at decode time.
//
// Chain packages a whole graph as an ordered sequence of keyed records so
// that keyed form round-trips with no external source of referenced content.
//
// # Canonicalization
//
// Decoding consults a process-wide registry of weakly held live instances.
// When a decoded candidate's Key matches an instance that is already alive,
// the existing instance is returned and the candidate discarded, so callers
// observe identity equality for independently decoded but content-equal
// subgraphs. The registry never keeps an instance alive by itself.
package token
