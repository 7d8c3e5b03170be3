package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/internal/config"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/log"
	"github.com/inputkit/layoutc/pkg/snapshot"
)

const swappedPad = `
name: SwappedPad
extend: Gamepad
device:
  product: Swapped*
controls:
  - name: buttonSouth
    displayName: Jump
`

func testConfig() config.Config {
	return config.Config{
		Log:      config.LogConfig{Level: "error", Format: "text"},
		Deadzone: config.DeadzoneConfig{Min: 0.125, Max: 0.925},
		Buttons:  config.ButtonsConfig{PressPoint: 0.5},
	}
}

func newTestEnv(t *testing.T, paths ...string) *Env {
	t.Helper()
	env, err := NewEnv(testConfig(), paths, io.Discard)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func writeLayout(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewEnvLoadsFiles(t *testing.T) {
	env := newTestEnv(t, writeLayout(t, swappedPad))
	_, ok := env.Registry.Lookup("swappedpad")
	assert.True(t, ok)
	_, ok = env.Registry.Lookup("Gamepad")
	assert.True(t, ok, "built-ins are always present")

	_, err := NewEnv(testConfig(), []string{filepath.Join(t.TempDir(), "missing.yaml")}, io.Discard)
	assert.Error(t, err)
}

func TestRunCompile(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(t.TempDir(), "pad.cbor")

	var buf bytes.Buffer
	require.NoError(t, RunCompile(env, "Gamepad", out, &buf))
	assert.Contains(t, buf.String(), "/Gamepad/buttonSouth")
	assert.Contains(t, buf.String(), "PrimaryAction,Submit")

	snap, err := snapshot.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Gamepad", snap.Layout)
	assert.EqualValues(t, 28, snap.SizeInBytes)
	c, ok := snap.Control("leftStick/y")
	require.True(t, ok)
	assert.EqualValues(t, 8, c.ByteOffset)

	err = RunCompile(env, "Gamepd", "", io.Discard)
	assert.ErrorIs(t, err, layout.ErrUnknownLayout)
	assert.Contains(t, err.Error(), "Gamepad")
}

func TestRunQuery(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	require.NoError(t, RunQuery(env, []string{"Gamepad", "XInputController"}, "/*/{PrimaryAction}", &buf))
	out := buf.String()
	assert.Contains(t, out, "/Gamepad/buttonSouth")
	assert.Contains(t, out, "/XInputController/buttonSouth")
	assert.Contains(t, out, "2 control(s)")

	buf.Reset()
	require.NoError(t, RunQuery(newTestEnv(t), []string{"Gamepad"}, "/<Gamepad>/leftStick", &buf))
	assert.Contains(t, buf.String(), "Control layout: Stick")

	assert.Error(t, RunQuery(newTestEnv(t), []string{"Gamepad"}, "/<Gamepad", io.Discard))
}

func TestRunMatch(t *testing.T) {
	env := newTestEnv(t, writeLayout(t, swappedPad))

	tests := []struct {
		name string
		desc layout.Descriptor
		want string
	}{
		{"interface", layout.Descriptor{Interface: "XInput"}, "XInputController (matcher)"},
		{"product glob", layout.Descriptor{Product: "Swapped Pro"}, "SwappedPad (matcher)"},
		{"class", layout.Descriptor{DeviceClass: "Gamepad"}, "Gamepad (matcher)"},
		{"class fallback", layout.Descriptor{DeviceClass: "pointer"}, "Pointer (device class)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RunMatch(env.Registry, tt.desc, &buf))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}

	err := RunMatch(env.Registry, layout.Descriptor{Product: "Toaster"}, io.Discard)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRunDump(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	require.NoError(t, RunDump(env.Registry, "XInputController", &buf))

	desc, err := layoutfile.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "XInputController", desc.Name)
	assert.Empty(t, desc.Extends)
	south, ok := desc.Control("buttonSouth")
	require.True(t, ok)
	assert.Equal(t, "A", south.DisplayName)
	assert.Equal(t, "Button", south.Layout)
	_, ok = desc.Control("leftStick")
	assert.True(t, ok, "inherited controls are flattened in")

	assert.ErrorIs(t, RunDump(env.Registry, "Nope", io.Discard), layout.ErrUnknownLayout)
}

func TestTraceFileViewAndStats(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "trace.cbor")
	cfg := testConfig()
	cfg.Log.TraceFile = trace

	env, err := NewEnv(cfg, nil, io.Discard)
	require.NoError(t, err)
	require.NoError(t, RunCompile(env, "Gamepad", "", io.Discard))
	_, err = env.System.GetControls("/gamepad/start")
	require.NoError(t, err)
	env.Close()

	var buf bytes.Buffer
	require.NoError(t, RunStats(trace, &buf))
	out := buf.String()
	assert.Contains(t, out, "CHANGE:")
	assert.Contains(t, out, "BUILD:")
	assert.Contains(t, out, "QUERY:")
	assert.Contains(t, out, "Builds: 1 (0 rebuilds)")

	buf.Reset()
	build, err := ParseCategoryFlag("build")
	require.NoError(t, err)
	require.NoError(t, RunView(trace, log.Filter{Category: &build}, &buf))
	out = buf.String()
	assert.Contains(t, out, "Built: Gamepad, 32 controls, 28 bytes")
	assert.NotContains(t, out, "Change:")
}

func TestParseFlags(t *testing.T) {
	l, err := ParseLayerFlag("Build")
	require.NoError(t, err)
	assert.Equal(t, "BUILD", l.String())
	_, err = ParseLayerFlag("wire")
	assert.Error(t, err)

	_, err = ParseCategoryFlag("snapshot")
	assert.Error(t, err)

	ts, err := ParseTimeFlag("2026-01-28T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2026, ts.Year())
	_, err = ParseTimeFlag("yesterday")
	assert.Error(t, err)
}

func TestCatalogImportAndList(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "catalog.db")

	var buf bytes.Buffer
	require.NoError(t, RunCatalogImport(ctx, db, []string{writeLayout(t, swappedPad)}, &buf))
	assert.Contains(t, buf.String(), "Imported 1 layout(s)")

	buf.Reset()
	require.NoError(t, RunCatalogList(ctx, db, &buf))
	assert.Contains(t, buf.String(), "SwappedPad")
	assert.Contains(t, buf.String(), "Gamepad")
	assert.Contains(t, buf.String(), "1 layout(s)")

	env := newTestEnv(t)
	n, err := env.AttachCatalog(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := env.Registry.Lookup("SwappedPad")
	assert.True(t, ok)
}
