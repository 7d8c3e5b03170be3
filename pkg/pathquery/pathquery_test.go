package pathquery_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/pkg/builtin"
	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/log"
	"github.com/inputkit/layoutc/pkg/merge"
	"github.com/inputkit/layoutc/pkg/pathquery"
	"github.com/inputkit/layoutc/pkg/registry"
	"github.com/inputkit/layoutc/pkg/statelayout"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := builtin.NewRegistry()
	require.NoError(t, err)

	nest, err := layout.NewBuilder().WithName("Nest").WithType("compound").
		AddControl("p").WithLayout("Pair").WithUsages("Group").Build()
	require.NoError(t, err)
	pair, err := layout.NewBuilder().WithName("Pair").WithType("compound").
		AddControl("a").WithLayout("Button").WithUsages("Leaf").Build()
	require.NoError(t, err)
	box, err := layout.NewBuilder().WithName("Box").
		AddControl("n").WithLayout("Nest").WithUsages("Group").Build()
	require.NoError(t, err)
	for _, d := range []*layout.Description{pair, nest, box} {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func devices(t *testing.T, reg *registry.Registry, names ...string) []*control.Device {
	t.Helper()
	res := merge.NewResolver(reg)
	var out []*control.Device
	for _, name := range names {
		eff, err := res.Resolve(name)
		require.NoError(t, err)
		tree, err := statelayout.Assign(res, eff, statelayout.Options{})
		require.NoError(t, err)
		dev, err := control.NewBuilder().Build(tree)
		require.NoError(t, err)
		out = append(out, dev)
	}
	return out
}

func paths(cs []control.Control) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Path()
	}
	return out
}

func TestMatch(t *testing.T) {
	reg := newRegistry(t)
	devs := devices(t, reg, "Gamepad", "XInputController", "Box")

	tests := []struct {
		query string
		want  []string
	}{
		{"/gamepad/buttonSouth", []string{"/Gamepad/buttonSouth"}},
		{"GAMEPAD/A", []string{"/Gamepad/buttonSouth"}},
		{"*/buttonSouth", []string{"/Gamepad/buttonSouth", "/XInputController/buttonSouth"}},
		{"<gamepad>/start", []string{"/Gamepad/start", "/XInputController/start"}},
		{"<XInputController>/start", []string{"/XInputController/start"}},
		{"g*pad/*Stick", []string{"/Gamepad/leftStick", "/Gamepad/rightStick"}},
		{"/gamepad/{submit}", []string{"/Gamepad/buttonSouth"}},
		{"/gamepad/<stick>/x", []string{"/Gamepad/leftStick/x", "/Gamepad/rightStick/x"}},
		{"/gamepad/{Primary2DMotion}/up", []string{"/Gamepad/leftStick/up"}},
		{"/gamepad/dpad/*", []string{"/Gamepad/dpad/up", "/Gamepad/dpad/down", "/Gamepad/dpad/left", "/Gamepad/dpad/right"}},
		{"/gamepad", []string{"/Gamepad"}},
		{"/gamepad/nothing/x", nil},
		{"/nothing", nil},
		{"/box/{group}/{leaf}", []string{"/Box/n/p/a"}},
		{"/box/{leaf}", []string{"/Box/n/p/a"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := pathquery.Match(tt.query, devs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nilIfEmpty(paths(got)))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestMatchLayoutIsInheritanceAware(t *testing.T) {
	devs := devices(t, newRegistry(t), "Gamepad")
	got, err := pathquery.Match("/gamepad/<button>", devs)
	require.NoError(t, err)
	assert.Len(t, got, 12)

	got, err = pathquery.Match("/gamepad", devs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDevice())
}

func TestPathMatches(t *testing.T) {
	devs := devices(t, newRegistry(t), "Gamepad")
	p, err := pathquery.Parse("<gamepad>/{cancel}")
	require.NoError(t, err)
	assert.True(t, p.Matches(devs[0].MustControl("buttonEast")))
	assert.False(t, p.Matches(devs[0].MustControl("buttonSouth")))
	assert.Equal(t, "/<gamepad>/{cancel}", p.String())
}

func TestParseErrors(t *testing.T) {
	for _, q := range []string{"", "/", "a//b", "/gamepad/<stick", "/gamepad/{x", "/a/b>c", "/<>"} {
		_, err := pathquery.Parse(q)
		assert.ErrorIs(t, err, pathquery.ErrInvalidPath, q)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMatcherTracesQueries(t *testing.T) {
	devs := devices(t, newRegistry(t), "Gamepad")
	rec := &recorder{}
	m := pathquery.NewMatcher(pathquery.WithLogger(rec))

	_, err := m.Match("*/<stick>", devs)
	require.NoError(t, err)
	_, err = m.Match("*/<stick", devs)
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, log.CategoryQuery, rec.events[0].Category)
	assert.Equal(t, &log.QueryEvent{Path: "*/<stick>", Matches: 2}, rec.events[0].Query)
	assert.Equal(t, log.CategoryError, rec.events[1].Category)
	assert.Equal(t, log.LayerQuery, rec.events[1].Error.Layer)
}

func TestTryGetControlLayout(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"*/<button>", "button", true},
		{"/<gamepad>/leftStick", "Stick", true},
		{"/<gamepad>/*Stick", "Stick", true},
		{"/<gamepad>/*", pathquery.AnyLayout, true},
		{"<gamepad>/leftStick/x", "Axis", true},
		{"<gamepad>/{PrimaryAction}", "Button", true},
		{"<xinputcontroller>/b", "Button", true},
		{"<box>/{leaf}", "Button", true},
		{"/gamepad/leftStick", "", false},
		{"/<gamepad>", "", false},
		{"/<gamepad>/nothing", "", false},
		{"/<gamepad>/*Shoulder", "Button", true},
		{"/<gamepad>/dpad", "Dpad", true},
		{"/<gamepad>/{Hatswitch}/up", "Button", true},
		{"/<unknown>/x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := pathquery.TryGetControlLayout(reg, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := pathquery.TryGetControlLayout(reg, "/<gamepad>/<stick>/{nothing}")
	assert.False(t, ok)
}

func TestTryGetControlLayoutDisagreement(t *testing.T) {
	reg := newRegistry(t)
	_, ok := pathquery.TryGetControlLayout(reg, "/<gamepad>/*t*")
	assert.False(t, ok, "start is a Button while leftStick is a Stick")
}

func TestTryGetDeviceLayout(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"<gamepad>/leftStick", "gamepad", true},
		{"/<gamepad>", "gamepad", true},
		{"/*/*Stick", pathquery.AnyLayout, true},
		{"/*", pathquery.AnyLayout, true},
		{"/gamepad/leftStick", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := pathquery.TryGetDeviceLayout(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
