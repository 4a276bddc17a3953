package sdk

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/stablekey/sdk/token"
)

// MarshalJSON encodes t's whole content graph as a self-contained JSON
// document in keyed-chain form: every distinct subgraph appears exactly
// once, dependency-first.
func MarshalJSON(t token.Tokenizable) ([]byte, error) {
	chain, err := token.NewChain(t)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(chain)
	if err != nil {
		return nil, fmt.Errorf("sdk: marshaling chain: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a document produced by MarshalJSON. Decoding is
// canonicalizing: content already live in this process comes back as the
// existing instances.
func UnmarshalJSON(data []byte) (token.Tokenizable, error) {
	var chain token.Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("sdk: unmarshaling chain: %w", err)
	}
	return chain.Decode()
}

// MarshalYAML encodes t's whole content graph as a self-contained YAML
// document in keyed-chain form.
func MarshalYAML(t token.Tokenizable) ([]byte, error) {
	chain, err := token.NewChain(t)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(chain)
	if err != nil {
		return nil, fmt.Errorf("sdk: marshaling chain: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a document produced by MarshalYAML.
func UnmarshalYAML(data []byte) (token.Tokenizable, error) {
	var chain token.Chain
	if err := yaml.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("sdk: unmarshaling chain: %w", err)
	}
	return chain.Decode()
}
