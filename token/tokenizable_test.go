package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModule = "github.com/stablekey/sdk/token"

// leaf is a minimal participating type: one content field and one defaulted
// field.
type leaf struct {
	Base
	a any
	b int
}

func newLeaf(a any, b int) *leaf {
	return &leaf{a: a, b: b}
}

func (l *leaf) TypeTag() TypeTag {
	return TypeTag{Module: testModule, Qualname: "leaf"}
}

func (l *leaf) ToFields() Fields {
	return Fields{"a": l.a, "b": l.b}
}

func (l *leaf) Defaults() Fields {
	return Fields{"b": 2}
}

func leafFactory(fields Fields) (Tokenizable, error) {
	b := 2
	if v, ok := fields["b"]; ok {
		switch n := v.(type) {
		case int:
			b = n
		case float64:
			b = int(n)
		}
	}
	return newLeaf(fields["a"], b), nil
}

// container exercises every permitted field shape: a directly held
// Tokenizable, an ordered sequence, and a string-keyed mapping.
type container struct {
	Base
	obj Tokenizable
	lst []any
	dct map[string]any
}

func newContainer(obj Tokenizable, lst []any, dct map[string]any) *container {
	return &container{obj: obj, lst: lst, dct: dct}
}

func (c *container) TypeTag() TypeTag {
	return TypeTag{Module: testModule, Qualname: "container"}
}

func (c *container) ToFields() Fields {
	return Fields{"obj": c.obj, "lst": c.lst, "dct": c.dct}
}

func (c *container) Defaults() Fields { return nil }

func containerFactory(fields Fields) (Tokenizable, error) {
	obj, _ := fields["obj"].(Tokenizable)
	lst, _ := fields["lst"].([]any)
	dct, _ := fields["dct"].(map[string]any)
	return newContainer(obj, lst, dct), nil
}

// inner registers under a dotted qualified name, standing in for a type
// nested within another type.
type inner struct {
	Base
	n int
}

func (i *inner) TypeTag() TypeTag {
	return TypeTag{Module: testModule, Qualname: "outer.inner"}
}

func (i *inner) ToFields() Fields { return Fields{"n": i.n} }
func (i *inner) Defaults() Fields { return nil }

func init() {
	RegisterType(TypeTag{Module: testModule, Qualname: "leaf"}, leafFactory)
	RegisterType(TypeTag{Module: testModule, Qualname: "container"}, containerFactory)
	RegisterType(TypeTag{Module: testModule, Qualname: "outer.inner"}, func(fields Fields) (Tokenizable, error) {
		n, _ := fields["n"].(int)
		return &inner{n: n}, nil
	})
}

// fixture builds the reference graph from the codec tests: a leaf, a leaf
// wrapping that leaf, and a container holding both plus primitives.
type fixture struct {
	leaf *leaf
	bar  *leaf
	cont *container
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Cleanup(DefaultRegistry.Clear)

	l := newLeaf("foo", 2)
	bar := newLeaf(l, 2)
	cont := newContainer(
		bar,
		[]any{l, 0},
		map[string]any{"leaf": l, "a": "b"},
	)
	return fixture{leaf: l, bar: bar, cont: cont}
}

func leafDeep(a any) map[string]any {
	return map[string]any{
		fieldModule:   testModule,
		fieldQualname: "leaf",
		"a":           a,
	}
}

func (f fixture) expectedDeep() Fields {
	return Fields{
		fieldModule:   testModule,
		fieldQualname: "container",
		"obj":         leafDeep(leafDeep("foo")),
		"lst":         []any{leafDeep("foo"), 0},
		"dct":         map[string]any{"leaf": leafDeep("foo"), "a": "b"},
	}
}

func TestToDeep(t *testing.T) {
	f := newFixture(t)

	deep, err := ToDeep(f.cont)
	require.NoError(t, err)
	assert.Equal(t, f.expectedDeep(), deep)
}

func TestToDeepOmitsDefaults(t *testing.T) {
	newFixture(t)

	deep, err := ToDeep(newLeaf("foo", 2))
	require.NoError(t, err)
	assert.NotContains(t, deep, "b", "defaulted field must be omitted")

	deep, err = ToDeep(newLeaf("foo", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, deep["b"], "non-default field must be emitted")
}

func TestFromDeepReturnsLiveInstance(t *testing.T) {
	f := newFixture(t)

	// Deriving the key records the live graph's root in the registry.
	_, err := KeyOf(f.cont)
	require.NoError(t, err)

	recreated, err := FromDeep(f.expectedDeep())
	require.NoError(t, err)
	assert.True(t, Equal(f.cont, recreated))
	assert.Same(t, f.cont, recreated, "decode must canonicalize to the live instance")
}

func TestDeepRoundTrip(t *testing.T) {
	f := newFixture(t)

	ser, err := ToDeep(f.cont)
	require.NoError(t, err)

	deser, err := FromDeep(ser)
	require.NoError(t, err)
	assert.True(t, Equal(f.cont, deser))

	reser, err := ToDeep(deser)
	require.NoError(t, err)
	assert.Equal(t, ser, reser)
}

func TestDeepDecodeRestoresDefaults(t *testing.T) {
	newFixture(t)

	deser, err := FromDeep(leafDeep("foo"))
	require.NoError(t, err)
	assert.Equal(t, 2, deser.(*leaf).b)
}

func TestToShallow(t *testing.T) {
	f := newFixture(t)

	shallow, err := ToShallow(f.cont)
	require.NoError(t, err)

	expected := Fields{
		fieldModule:   testModule,
		fieldQualname: "container",
		"obj":         f.bar,
		"lst":         []any{f.leaf, 0},
		"dct":         map[string]any{"leaf": f.leaf, "a": "b"},
	}
	assert.Equal(t, expected, shallow)
}

func TestFromShallowPreservesSharing(t *testing.T) {
	f := newFixture(t)

	shallow, err := ToShallow(f.cont)
	require.NoError(t, err)

	recreated, err := FromShallow(shallow)
	require.NoError(t, err)
	assert.True(t, Equal(f.cont, recreated))

	// Fields that referenced the same nested instance still do.
	c := recreated.(*container)
	assert.Same(t, c.obj.(*leaf).a, c.lst[0])
	assert.Same(t, c.obj.(*leaf).a, c.dct["leaf"])
}

func TestShallowRoundTrip(t *testing.T) {
	f := newFixture(t)

	ser, err := ToShallow(f.cont)
	require.NoError(t, err)

	deser, err := FromShallow(ser)
	require.NoError(t, err)

	reser, err := ToShallow(deser)
	require.NoError(t, err)

	assert.Equal(t, ser, reser)
	assert.True(t, Equal(f.cont, deser))
	assert.Same(t, f.cont, deser, "live top-level instance wins the key")
}

func TestToKeyed(t *testing.T) {
	f := newFixture(t)

	leafKey, err := KeyOf(f.leaf)
	require.NoError(t, err)
	barKey, err := KeyOf(f.bar)
	require.NoError(t, err)

	keyed, err := ToKeyed(f.cont)
	require.NoError(t, err)

	expected := Fields{
		fieldModule:   testModule,
		fieldQualname: "container",
		"obj":         map[string]any{keyMarker: barKey.String()},
		"lst":         []any{map[string]any{keyMarker: leafKey.String()}, 0},
		"dct":         map[string]any{"leaf": map[string]any{keyMarker: leafKey.String()}, "a": "b"},
	}
	assert.Equal(t, expected, keyed)
}

func TestKeyedRoundTrip(t *testing.T) {
	f := newFixture(t)

	ser, err := ToKeyed(f.cont)
	require.NoError(t, err)

	deser, err := FromKeyed(ser, nil)
	require.NoError(t, err)

	reser, err := ToKeyed(deser)
	require.NoError(t, err)

	assert.Equal(t, ser, reser)
	assert.True(t, Equal(f.cont, deser))
	assert.Same(t, f.cont, deser)
}

func TestEqualIgnoresIdentity(t *testing.T) {
	newFixture(t)

	x := newLeaf("foo", 2)
	y := newLeaf("foo", 2)
	z := newLeaf("bar", 2)

	assert.True(t, Equal(x, y))
	assert.False(t, Equal(x, z))
	assert.False(t, Equal(x, nil))
	assert.True(t, Equal(nil, nil))
}

func TestEncodeRejectsUnsupportedValues(t *testing.T) {
	newFixture(t)

	bad := newLeaf(make(chan int), 2)
	_, err := ToDeep(bad)
	require.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = KeyOf(bad)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestEncodeRejectsNonStringMapKeys(t *testing.T) {
	newFixture(t)

	bad := newLeaf(map[int]string{1: "x"}, 2)
	_, err := ToDeep(bad)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}
