package work

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablekey/sdk/token"
)

// step multiplies the sum of its dependency outputs by a factor. With no
// dependencies it just emits its factor.
type step struct {
	token.Base
	label  string
	factor int
}

func newStep(label string, factor int) *step {
	return &step{label: label, factor: factor}
}

func (s *step) Name() string { return s.label }

func (s *step) TypeTag() token.TypeTag {
	return token.TypeTag{Module: Module, Qualname: "step"}
}

func (s *step) ToFields() token.Fields {
	return token.Fields{"label": s.label, "factor": s.factor}
}

func (s *step) Defaults() token.Fields { return nil }

func (s *step) Execute(ctx context.Context, deps []*Result) (map[string]any, error) {
	value := s.factor
	if len(deps) > 0 {
		sum := 0
		for _, dep := range deps {
			sum += asInt(dep.Outputs()["value"])
		}
		value = sum * s.factor
	}
	return map[string]any{"value": value}, nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// failing always errors.
type failing struct {
	token.Base
	label string
}

func (f *failing) Name() string { return f.label }

func (f *failing) TypeTag() token.TypeTag {
	return token.TypeTag{Module: Module, Qualname: "failing"}
}

func (f *failing) ToFields() token.Fields { return token.Fields{"label": f.label} }
func (f *failing) Defaults() token.Fields { return nil }

func (f *failing) Execute(ctx context.Context, deps []*Result) (map[string]any, error) {
	return nil, fmt.Errorf("boom")
}

func init() {
	token.RegisterType(token.TypeTag{Module: Module, Qualname: "step"}, func(fields token.Fields) (token.Tokenizable, error) {
		var raw struct {
			Label  string `token:"label"`
			Factor int    `token:"factor"`
		}
		if err := token.DecodeFields(fields, &raw); err != nil {
			return nil, err
		}
		return newStep(raw.Label, raw.Factor), nil
	})
	token.RegisterType(token.TypeTag{Module: Module, Qualname: "failing"}, func(fields token.Fields) (token.Tokenizable, error) {
		label, _ := fields["label"].(string)
		return &failing{label: label}, nil
	})
}

func TestDAGAdd(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	d := NewDAG()
	a := newStep("a", 1)
	b := newStep("b", 2)

	aKey, err := d.Add(a)
	require.NoError(t, err)
	bKey, err := d.Add(b, a)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []token.Key{aKey, bKey}, d.Keys())
	assert.Equal(t, []token.Key{aKey}, d.Dependencies(bKey))

	got, ok := d.Unit(aKey)
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestDAGAddRejectsUnknownDependency(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	d := NewDAG()
	_, err := d.Add(newStep("b", 2), newStep("a", 1))
	assert.ErrorIs(t, err, ErrUnknownDependency)
}

func TestDAGAddRejectsDuplicateContent(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	d := NewDAG()
	_, err := d.Add(newStep("a", 1))
	require.NoError(t, err)

	// Equal content derives the same key even from a distinct instance.
	_, err = d.Add(newStep("a", 1))
	assert.ErrorIs(t, err, ErrDuplicateUnit)
}
