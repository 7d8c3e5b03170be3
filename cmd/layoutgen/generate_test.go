package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inputkit/layoutc/pkg/snapshot"
)

func gamepadSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	snap, err := compile("Gamepad", nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return snap
}

func TestGenerateConstants(t *testing.T) {
	code, err := Generate(gamepadSnapshot(t), GenerateOptions{Package: "pads"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"package pads",
		"const GamepadStateSize = 28",
		"GamepadButtonSouthByte = 0",
		"GamepadButtonSouthBit  = 6",
		"GamepadLeftStickYByte = 8",
		"// GamepadLeftStickY: leftStick/y (axis)",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}

	if _, err := parser.ParseFile(token.NewFileSet(), "gen.go", code, 0); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, code)
	}
}

func TestGeneratePrefix(t *testing.T) {
	code, err := Generate(gamepadSnapshot(t), GenerateOptions{Package: "pads", Prefix: "pad"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "const PadStateSize = 28") {
		t.Errorf("prefix not applied:\n%s", code)
	}
}

func TestGenerateRejectsInvalidSnapshot(t *testing.T) {
	snap := gamepadSnapshot(t)
	snap.Fingerprint = nil
	if _, err := Generate(snap, GenerateOptions{Package: "pads"}); err == nil {
		t.Error("expected error for snapshot without fingerprint")
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leftStick/x", "LeftStickX"},
		{"buttonSouth", "ButtonSouth"},
		{"touch0/position", "Touch0Position"},
		{"my-pad", "MyPad"},
		{"3d", "C3d"},
		{"//", ""},
	}
	for _, tt := range tests {
		if got := identifier(tt.in); got != tt.want {
			t.Errorf("identifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunWritesFormattedFile(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "mini.yaml")
	if err := os.WriteFile(custom, []byte(`
name: Mini
format: MINI
controls:
  - name: fire
    layout: Button
  - name: throttle
    layout: Axis
    format: BYTE
`), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "gen", "mini_gen.go")
	if err := run("Mini", "", "mini", "", out, []string{custom}); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	code := string(data)
	if !strings.Contains(code, "MiniFireBit") || !strings.Contains(code, "MiniThrottleByte") {
		t.Errorf("unexpected output:\n%s", code)
	}
	if !strings.HasPrefix(code, "// Code generated by layoutgen") {
		t.Error("missing generated-code header")
	}
}
