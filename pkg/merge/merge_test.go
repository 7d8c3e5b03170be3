package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/registry"
)

func newSource(t *testing.T, descs ...*layout.Description) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, d := range descs {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func names(items []layout.ControlItem) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Name
	}
	return out
}

func primitives() []*layout.Description {
	return []*layout.Description{
		{Name: "Button", Type: "button", StateFormat: layout.FormatBit},
		{Name: "Axis", Type: "axis", StateFormat: layout.FormatFloat},
		{Name: "Custom", Type: "compound"},
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Base", Controls: []layout.ControlItem{
			{Name: "a", Layout: "Button"},
			{Name: "b", Layout: "Axis", Usages: []string{"Throttle"}},
		}},
		&layout.Description{Name: "Derived", Extends: "Base", Controls: []layout.ControlItem{
			{Name: "b", Format: layout.FormatByte},
			{Name: "c", Layout: "Axis", ArraySize: 2},
		}},
	)...)

	first, err := Resolve(src, "Derived")
	require.NoError(t, err)
	second, err := Resolve(src, "derived")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Derived", "Base"}, first.Chain)
	assert.True(t, first.Inherits("base"))
}

func TestInheritanceOverridesOnlyGivenFields(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "B", Controls: []layout.ControlItem{{
			Name:        "c",
			Layout:      "Axis",
			Usages:      []string{"U1"},
			Aliases:     []string{"alt"},
			Format:      layout.FormatShort,
			Offset:      layout.Uint(4),
			Parameters:  layout.Parameters{{Name: "invert", Value: "true"}},
			DisplayName: "Control C",
		}}},
		&layout.Description{Name: "D", Extends: "B", Controls: []layout.ControlItem{
			{Name: "C", Usages: []string{"U2"}},
		}},
	)...)

	base, err := Resolve(src, "B")
	require.NoError(t, err)
	derived, err := Resolve(src, "D")
	require.NoError(t, err)

	require.Len(t, derived.Controls, 1)
	c := derived.Controls[0]
	assert.Equal(t, []string{"U2"}, c.Usages)

	want := base.Controls[0].Clone()
	want.Usages = []string{"U2"}
	assert.Equal(t, want, c)
}

func TestParametersMergeByName(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "B", Controls: []layout.ControlItem{{
			Name: "axis", Layout: "Axis",
			Parameters: layout.Parameters{{Name: "clamp", Value: "true"}, {Name: "clampMin", Value: "0"}},
		}}},
		&layout.Description{Name: "D", Extends: "B", Controls: []layout.ControlItem{{
			Name:       "axis",
			Parameters: layout.Parameters{{Name: "clampMin", Value: "-1"}, {Name: "invert", Value: "true"}},
		}}},
	)...)

	eff, err := Resolve(src, "D")
	require.NoError(t, err)
	assert.Equal(t, "clamp=true,clampMin=-1,invert=true", eff.Controls[0].Parameters.String())
}

func TestInheritedLayoutAttributes(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{
			Name: "B", Type: "device", StateFormat: layout.MakeFourCC("GPAD"),
			DisplayName: "Base", CommonUsages: []string{"LeftHand"},
			Matcher: layout.DeviceMatcher{}.With(layout.MatchProduct, "Base*"),
		},
		&layout.Description{Name: "D", Extends: "B", CommonUsages: []string{"RightHand"}},
	)...)

	eff, err := Resolve(src, "D")
	require.NoError(t, err)
	assert.Equal(t, "device", eff.Type)
	assert.Equal(t, layout.MakeFourCC("GPAD"), eff.StateFormat)
	assert.Equal(t, "Base", eff.DisplayName)
	assert.Equal(t, []string{"LeftHand", "RightHand"}, eff.CommonUsages)
	assert.True(t, eff.Matcher.IsEmpty(), "matcher is not inherited")
	assert.Equal(t, "B", eff.Extends)
}

func TestVariantFiltering(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Base", Controls: []layout.ControlItem{
			{Name: "slot1", Layout: "Button", Variant: "A"},
			{Name: "slot2", Layout: "Button", Variant: "A"},
			{Name: "slot1", Layout: "Axis", Variant: "B"},
			{Name: "slot2", Layout: "Axis", Variant: "B"},
			{Name: "common", Layout: "Button"},
			{Name: "explicitDefault", Layout: "Button", Variant: "default"},
		}},
		&layout.Description{Name: "DeviceA", Extends: "Base", Variant: "A"},
	)...)

	eff, err := Resolve(src, "DeviceA")
	require.NoError(t, err)
	assert.Equal(t, []string{"slot1", "slot2", "common", "explicitDefault"}, names(eff.Controls))
	for _, c := range eff.Controls {
		assert.NotEqual(t, "B", c.Variant)
	}
}

func TestVariantFilterAppliesToOwnItemsOfVariantLayout(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "VariantA", Variant: "A", Controls: []layout.ControlItem{
			{Name: "button", Layout: "Button", Variant: "A"},
			{Name: "axis", Layout: "Axis", Variant: "B"},
		}},
		&layout.Description{Name: "Derived", Extends: "VariantA", Controls: []layout.ControlItem{
			{Name: "button", Variant: "A", Offset: layout.Uint(20)},
			{Name: "other", Layout: "Axis", Variant: "B"},
		}},
	)...)

	a, err := Resolve(src, "VariantA")
	require.NoError(t, err)
	assert.Equal(t, []string{"button"}, names(a.Controls))

	d, err := Resolve(src, "Derived")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Variant, "variant inherited")
	require.Equal(t, []string{"button"}, names(d.Controls))
	assert.Equal(t, uint32(20), *d.Controls[0].Offset)
}

func TestPathItems(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Base", Controls: []layout.ControlItem{
			{Name: "stick", Layout: "Custom"},
			{Name: "stick/x", Format: layout.FormatByte},
		}},
		&layout.Description{Name: "Derived", Extends: "Base", Controls: []layout.ControlItem{
			{Name: "STICK/x", Offset: layout.Uint(6)},
			{Name: "stick/extra", Layout: "Button"},
		}},
		&layout.Description{Name: "Broken", Extends: "Base", Controls: []layout.ControlItem{
			{Name: "missing/x", Offset: layout.Uint(1)},
		}},
	)...)

	eff, err := Resolve(src, "Derived")
	require.NoError(t, err)
	require.Equal(t, []string{"stick", "stick/x", "stick/extra"}, names(eff.Controls))
	assert.Equal(t, layout.FormatByte, eff.Controls[1].Format)
	assert.Equal(t, uint32(6), *eff.Controls[1].Offset)

	_, err = Resolve(src, "Broken")
	assert.ErrorIs(t, err, layout.ErrUnknownParentControl)
}

func TestMergeDoesNotReportDuplicates(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Dup", Controls: []layout.ControlItem{
			{Name: "x", Layout: "Button"},
			{Name: "x", Layout: "Axis"},
		}},
	)...)
	eff, err := Resolve(src, "Dup")
	require.NoError(t, err)
	assert.Len(t, eff.Controls, 2)
}

func TestArrayExpansion(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Arrays", Controls: []layout.ControlItem{
			{Name: "value", Layout: "Axis", ArraySize: 5, Offset: layout.Uint(8), Usages: []string{"Value"}},
			{Name: "bits", Layout: "Button", ArraySize: 3, Bit: layout.Uint(2)},
			{Name: "packed", Layout: "Axis", ArraySize: 2},
		}},
	)...)

	eff, err := Resolve(src, "Arrays")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"value0", "value1", "value2", "value3", "value4",
		"bits0", "bits1", "bits2",
		"packed0", "packed1",
	}, names(eff.Controls))

	for i := 0; i < 5; i++ {
		c := eff.Controls[i]
		require.NotNil(t, c.Offset)
		assert.Equal(t, uint32(8+4*i), *c.Offset, c.Name)
		assert.Equal(t, 0, c.ArraySize)
		assert.Equal(t, []string{"Value"}, c.Usages)
	}
	for i := 0; i < 3; i++ {
		c := eff.Controls[5+i]
		assert.Equal(t, uint32(2+i), *c.Bit, c.Name)
		assert.Equal(t, uint32(0), *c.Offset, c.Name)
	}
	assert.Nil(t, eff.Controls[8].Offset, "auto packed elements stay unplaced")
}

func TestArrayWithoutElementSize(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Bad", Controls: []layout.ControlItem{
			{Name: "raw", Layout: "Custom", ArraySize: 4, Offset: layout.Uint(0)},
		}},
	)...)
	_, err := Resolve(src, "Bad")
	assert.ErrorIs(t, err, layout.ErrLayoutNotSet)
}

func TestResolveErrors(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Orphan", Extends: "Nowhere"},
		&layout.Description{Name: "Loop1", Extends: "Loop2"},
		&layout.Description{Name: "Loop2", Extends: "Loop1"},
	)...)

	_, err := Resolve(src, "Missing")
	assert.ErrorIs(t, err, layout.ErrUnknownLayout)

	_, err = Resolve(src, "Orphan")
	assert.ErrorIs(t, err, layout.ErrUnknownLayout)

	_, err = Resolve(src, "Loop1")
	assert.ErrorIs(t, err, layout.ErrInvalidLayout)
}

func TestResolveLayoutBuilder(t *testing.T) {
	src := newSource(t, primitives()...)
	require.NoError(t, src.RegisterBuilder("Built", func() (*layout.Description, error) {
		return &layout.Description{Extends: "Button", Controls: []layout.ControlItem{
			{Name: "extra", Layout: "Axis"},
		}}, nil
	}))
	boom := errors.New("asset missing")
	require.NoError(t, src.RegisterBuilder("Failing", func() (*layout.Description, error) {
		return nil, boom
	}))

	eff, err := Resolve(src, "built")
	require.NoError(t, err)
	assert.Equal(t, "Built", eff.Name)
	assert.Equal(t, []string{"Built", "Button"}, eff.Chain)
	assert.Equal(t, layout.FormatBit, eff.StateFormat)
	assert.Equal(t, []string{"extra"}, names(eff.Controls))

	_, err = Resolve(src, "Failing")
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsA(src, "Built", "Button"))
}

func TestChainHelpers(t *testing.T) {
	src := newSource(t, append(primitives(),
		&layout.Description{Name: "Trigger", Extends: "Button"},
		&layout.Description{Name: "Pad"},
	)...)

	chain, err := Chain(src, "trigger")
	require.NoError(t, err)
	assert.Equal(t, []string{"Trigger", "Button"}, chain)

	assert.True(t, IsA(src, "Trigger", "button"))
	assert.False(t, IsA(src, "Button", "Trigger"))
	assert.False(t, IsA(src, "Unknown", "Button"))

	format, err := StateFormat(src, "Trigger")
	require.NoError(t, err)
	assert.Equal(t, layout.FormatBit, format)

	kind, err := Type(src, "Trigger")
	require.NoError(t, err)
	assert.Equal(t, "button", kind)

	kind, err = Type(src, "Pad")
	require.NoError(t, err)
	assert.Equal(t, layout.TypeDevice, kind)
}
