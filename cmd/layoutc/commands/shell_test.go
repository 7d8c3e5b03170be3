package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/pkg/control"
)

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewConsole(newTestEnv(t), &buf), &buf
}

func TestConsoleAddSetRead(t *testing.T) {
	c, out := newTestConsole(t)

	assert.False(t, c.Exec("add Gamepad"))
	assert.Contains(t, out.String(), "Added Gamepad")
	assert.Contains(t, out.String(), "28 bytes of state")

	out.Reset()
	c.Exec("set /gamepad/buttonSouth true")
	c.Exec("set /gamepad/leftTrigger 0.25")
	assert.NotContains(t, out.String(), "Error")

	out.Reset()
	c.Exec("read /gamepad/a")
	assert.Contains(t, out.String(), "/Gamepad/buttonSouth")
	assert.Contains(t, out.String(), " 1\n")

	out.Reset()
	c.Exec("read /gamepad/leftTrigger")
	assert.Contains(t, out.String(), "0.25")

	dev, ok := c.env.System.Device("Gamepad")
	require.True(t, ok)
	pressed, err := dev.MustControl("buttonSouth").IsPressed()
	require.NoError(t, err)
	assert.True(t, pressed)
}

func TestConsoleDevicesAndRemove(t *testing.T) {
	c, out := newTestConsole(t)
	c.Exec("add Gamepad")
	c.Exec("add Gamepad")

	out.Reset()
	c.Exec("devices")
	assert.Contains(t, out.String(), "Gamepad1")
	assert.Contains(t, out.String(), "2 device(s)")

	out.Reset()
	c.Exec("remove Gamepad1")
	c.Exec("devices")
	assert.Contains(t, out.String(), "1 device(s)")

	out.Reset()
	c.Exec("remove Gamepad1")
	assert.Contains(t, out.String(), "Error: unknown device")
}

func TestConsoleLoadRebuildsDevices(t *testing.T) {
	c, out := newTestConsole(t)
	c.Exec("add Gamepad")
	c.Exec("set /gamepad/leftTrigger 0.5")

	replacement := writeLayout(t, `
name: Button
type: button
format: BIT
displayName: Switch
`)
	out.Reset()
	c.Exec("load " + replacement)
	assert.Contains(t, out.String(), "Rebuilt Gamepad")
	assert.Contains(t, out.String(), "Registered Button")

	out.Reset()
	c.Exec("read /gamepad/leftTrigger")
	assert.Contains(t, out.String(), "0.5", "state survives the rebuild")
}

func TestConsoleQueryAndErrors(t *testing.T) {
	c, out := newTestConsole(t)
	c.Exec("add XInputController")

	out.Reset()
	c.Exec("query /*/<Stick>")
	assert.Contains(t, out.String(), "2 control(s)")

	for _, line := range []string{"add", "add Nope", "set /*/start", "set /*/start abc", "read", "frobnicate"} {
		out.Reset()
		c.Exec(line)
		assert.NotEmpty(t, out.String(), line)
	}
	assert.True(t, c.Exec("exit"))
	assert.False(t, c.Exec("   "))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"1", 1.0},
		{"0.5", 0.5},
		{"-1,0.5", control.Vector2{X: -1, Y: 0.5}},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"abc", "1,x", "x,1"} {
		_, err := parseValue(in)
		assert.Error(t, err, in)
	}
}
