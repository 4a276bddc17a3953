package token

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeFields hydrates out, a pointer to a struct, from a field mapping.
// It is a convenience for writing factories: struct fields map to mapping
// entries by lowercased name, or by an explicit `token:"name"` tag.
//
//	type solvated struct {
//		Solvent  token.Tokenizable `token:"solvent"`
//		Padding  float64           `token:"padding"`
//	}
//
//	func solvatedFactory(fields token.Fields) (token.Tokenizable, error) {
//		var s solvated
//		if err := token.DecodeFields(fields, &s); err != nil {
//			return nil, err
//		}
//		...
//	}
//
// Fields omitted from the mapping (encoded defaults) leave the struct
// field's pre-set value untouched, so factories can assign defaults before
// decoding.
func DecodeFields(fields Fields, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "token",
	})
	if err != nil {
		return fmt.Errorf("token: DecodeFields: %w", err)
	}
	if err := dec.Decode(map[string]any(fields)); err != nil {
		return fmt.Errorf("token: DecodeFields: %w", err)
	}
	return nil
}
