package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablekey/sdk/token"
)

func TestSelectorMatchesFields(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	sel, err := NewSelector(`object.name == "water" && object.size >= 2`)
	require.NoError(t, err)

	ok, err := sel.Match(newSample("water", 3))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sel.Match(newSample("ethanol", 3))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectorMatchesTypeAndKey(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	obj := newSample("water", 3)
	key, err := token.KeyOf(obj)
	require.NoError(t, err)

	sel, err := NewSelector(`qualname == "sample" && module == "` + testModule + `"`)
	require.NoError(t, err)
	ok, err := sel.Match(obj)
	require.NoError(t, err)
	assert.True(t, ok)

	sel, err = NewSelector(`key == "` + key.String() + `"`)
	require.NoError(t, err)
	ok, err = sel.Match(obj)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSelectorSeesNestedObjects(t *testing.T) {
	t.Cleanup(token.DefaultRegistry.Clear)

	sel, err := NewSelector(`object.item.name == "water"`)
	require.NoError(t, err)

	ok, err := sel.Match(newBundle("run", newSample("water", 3)))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewSelectorRejectsInvalidExpressions(t *testing.T) {
	_, err := NewSelector("")
	assert.Error(t, err)

	_, err = NewSelector(`object.name ==`)
	assert.Error(t, err)

	_, err = NewSelector(`"not a bool"`)
	assert.Error(t, err)
}
