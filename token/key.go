package token

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Key is the deterministic, cross-session-stable identifier of a
// Tokenizable's content: the type's qualified name paired with a SHA-256
// content hash, formatted "<qualname>-<hex>".
//
// The hash is computed over the canonical JSON encoding of the deep
// representation. encoding/json emits map keys in sorted order, so the Key
// is invariant to field declaration and iteration order; and because the
// deep form is fully expanded, equal nested content always hashes equally,
// even across separate processes.
//
// Keys are derived, never authored: they are safe to use as path components
// in content-addressed stores and as addresses for dependency results.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Qualname returns the qualified-name portion of the key.
func (k Key) Qualname() string {
	if i := strings.LastIndex(string(k), "-"); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// Hash returns the content-hash portion of the key.
func (k Key) Hash() string {
	if i := strings.LastIndex(string(k), "-"); i >= 0 {
		return string(k)[i+1:]
	}
	return ""
}

func deriveKey(tag TypeTag, canonical Fields) (Key, error) {
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", newError("token.KeyOf", KindEncode,
			fmt.Errorf("canonical form not encodable: %w", err))
	}
	sum := sha256.Sum256(data)
	return Key(tag.Qualname + "-" + hex.EncodeToString(sum[:])), nil
}
