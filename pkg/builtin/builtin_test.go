package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/pkg/builtin"
	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/merge"
	"github.com/inputkit/layoutc/pkg/statelayout"
)

func TestDescriptionsParse(t *testing.T) {
	descs, err := builtin.Descriptions()
	require.NoError(t, err)

	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	for _, want := range []string{"Button", "Axis", "Stick", "Dpad", "Touch", "Gamepad", "XInputController", "Pointer", "Touchscreen"} {
		assert.Contains(t, names, want)
	}
}

func TestEveryLayoutAssigns(t *testing.T) {
	reg, err := builtin.NewRegistry()
	require.NoError(t, err)
	res := merge.NewResolver(reg)

	for _, name := range reg.Names() {
		t.Run(name, func(t *testing.T) {
			eff, err := res.Resolve(name)
			require.NoError(t, err)
			_, err = statelayout.Assign(res, eff, statelayout.Options{Strict: true})
			require.NoError(t, err)
		})
	}
}

func buildDevice(t *testing.T, name string) *control.Device {
	t.Helper()
	reg, err := builtin.NewRegistry()
	require.NoError(t, err)
	eff, err := merge.Resolve(reg, name)
	require.NoError(t, err)
	tree, err := statelayout.Assign(merge.NewResolver(reg), eff, statelayout.Options{})
	require.NoError(t, err)
	dev, err := control.NewBuilder().Build(tree)
	require.NoError(t, err)
	return dev
}

func TestDeviceSizes(t *testing.T) {
	tests := []struct {
		layout string
		size   uint32
	}{
		{"Gamepad", 28},
		{"XInputController", 28},
		{"Pointer", 24},
		{"Touchscreen", 116},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assert.Equal(t, tt.size, buildDevice(t, tt.layout).SizeInBytes())
		})
	}
}

func TestGamepadOffsets(t *testing.T) {
	dev := buildDevice(t, "Gamepad")
	tests := []struct {
		path  string
		block layout.StateBlock
	}{
		{"dpad", layout.StateBlock{Format: layout.FormatBit, SizeInBits: 4}},
		{"dpad/right", layout.StateBlock{Format: layout.FormatBit, BitOffset: 3, SizeInBits: 1}},
		{"buttonWest", layout.StateBlock{Format: layout.FormatBit, BitOffset: 7, SizeInBits: 1}},
		{"select", layout.StateBlock{Format: layout.FormatBit, BitOffset: 13, SizeInBits: 1}},
		{"leftStick/x", layout.StateBlock{Format: layout.FormatFloat, ByteOffset: 4, SizeInBits: 32}},
		{"rightStick/y", layout.StateBlock{Format: layout.FormatFloat, ByteOffset: 16, SizeInBits: 32}},
		{"rightStick/left", layout.StateBlock{Format: layout.FormatFloat, ByteOffset: 12, SizeInBits: 32}},
		{"rightTrigger", layout.StateBlock{Format: layout.FormatFloat, ByteOffset: 24, SizeInBits: 32}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.block, dev.MustControl(tt.path).Block(), tt.path)
	}
}

func TestTouchscreen(t *testing.T) {
	dev := buildDevice(t, "Touchscreen")

	assert.Equal(t, dev.MustControl("primaryTouch/position").Block(), dev.MustControl("position").Block())
	assert.Equal(t, dev.MustControl("primaryTouch/position/y").Block(), dev.MustControl("position/y").Block())
	assert.Equal(t, uint32(60), dev.MustControl("touch0").Block().ByteOffset)
	assert.Equal(t, uint32(88), dev.MustControl("touch1").Block().ByteOffset)
	assert.Equal(t, uint32(88+24), dev.MustControl("touch1/tap").Block().ByteOffset)
	assert.Equal(t, control.KindCompound, dev.MustControl("touch1").Kind())
	assert.True(t, dev.DependsOn("Pointer"))
}
