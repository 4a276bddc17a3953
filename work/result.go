package work

import (
	"github.com/stablekey/sdk/token"
)

// Module is the module path under which work types register.
const Module = "github.com/stablekey/sdk/work"

// Result is the tokenizable record of one executed unit. It carries the
// producing unit's key, the outputs the unit returned, and the keys of
// the dependency results it consumed, so a stored Result can be joined
// back to its unit and its inputs by key alone.
type Result struct {
	token.Base
	name    string
	unitKey string
	outputs map[string]any
	depKeys []string
}

// NewResult creates the record of one unit execution.
func NewResult(name string, unitKey token.Key, outputs map[string]any, depKeys []token.Key) *Result {
	deps := make([]string, len(depKeys))
	for i, k := range depKeys {
		deps[i] = k.String()
	}
	if outputs == nil {
		outputs = map[string]any{}
	}
	return &Result{name: name, unitKey: unitKey.String(), outputs: outputs, depKeys: deps}
}

// Name returns the producing unit's label.
func (r *Result) Name() string { return r.name }

// UnitKey returns the derived key of the unit that produced this result.
func (r *Result) UnitKey() token.Key { return token.Key(r.unitKey) }

// Outputs returns the outputs the unit returned.
func (r *Result) Outputs() map[string]any { return r.outputs }

// DependencyKeys returns the keys of the results this execution consumed,
// in dependency declaration order.
func (r *Result) DependencyKeys() []token.Key {
	keys := make([]token.Key, len(r.depKeys))
	for i, k := range r.depKeys {
		keys[i] = token.Key(k)
	}
	return keys
}

func (r *Result) TypeTag() token.TypeTag {
	return token.TypeTag{Module: Module, Qualname: "Result"}
}

func (r *Result) ToFields() token.Fields {
	return token.Fields{
		"name":         r.name,
		"unit_key":     r.unitKey,
		"outputs":      r.outputs,
		"dependencies": r.depKeys,
	}
}

func (r *Result) Defaults() token.Fields { return nil }

func resultFactory(fields token.Fields) (token.Tokenizable, error) {
	var raw struct {
		Name         string         `token:"name"`
		UnitKey      string         `token:"unit_key"`
		Outputs      map[string]any `token:"outputs"`
		Dependencies []string       `token:"dependencies"`
	}
	if err := token.DecodeFields(fields, &raw); err != nil {
		return nil, err
	}
	if raw.Outputs == nil {
		raw.Outputs = map[string]any{}
	}
	return &Result{
		name:    raw.Name,
		unitKey: raw.UnitKey,
		outputs: raw.Outputs,
		depKeys: raw.Dependencies,
	}, nil
}

func init() {
	token.RegisterType(token.TypeTag{Module: Module, Qualname: "Result"}, resultFactory)
}
