package store

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/stablekey/sdk/token"
)

// Selector is a compiled CEL predicate over stored objects. Expressions
// see four variables:
//
//	object   the object's deep representation (map, nested objects expanded)
//	module   the object's module path
//	qualname the object's qualified type name
//	key      the object's derived key
//
// For example:
//
//	object.name == "solvated" && qualname == "systems.ChemicalSystem"
type Selector struct {
	expression string
	program    cel.Program
}

// NewSelector compiles expression into a Selector. The expression must
// evaluate to a boolean.
func NewSelector(expression string) (*Selector, error) {
	if expression == "" {
		return nil, fmt.Errorf("store: selector expression cannot be empty")
	}

	env, err := cel.NewEnv(
		cel.Variable("object", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("module", cel.StringType),
		cel.Variable("qualname", cel.StringType),
		cel.Variable("key", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("store: building selector environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("store: compiling selector %q: %w", expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("store: selector %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("store: building selector program: %w", err)
	}

	return &Selector{expression: expression, program: program}, nil
}

// Expression returns the source expression.
func (s *Selector) Expression() string { return s.expression }

// Match reports whether t satisfies the selector.
func (s *Selector) Match(t token.Tokenizable) (bool, error) {
	deep, err := token.ToDeep(t)
	if err != nil {
		return false, err
	}
	key, err := token.KeyOf(t)
	if err != nil {
		return false, err
	}
	tag := t.TypeTag()

	out, _, err := s.program.Eval(map[string]any{
		"object":   map[string]any(deep),
		"module":   tag.Module,
		"qualname": tag.Qualname,
		"key":      key.String(),
	})
	if err != nil {
		return false, fmt.Errorf("store: evaluating selector %q: %w", s.expression, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("store: selector %q returned non-boolean %T", s.expression, out.Value())
	}
	return matched, nil
}
