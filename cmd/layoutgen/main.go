// Command layoutgen generates Go constants for the state layout of a
// device: its state size and the byte offset, bit offset and bit size of
// every control.
//
// Usage:
//
//	layoutgen -layout Gamepad -package pads -o gamepad_layout_gen.go [file|dir]...
//	layoutgen -snapshot gamepad.cbor -package pads -o gamepad_layout_gen.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"

	"github.com/inputkit/layoutc/pkg/builtin"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/registry"
	"github.com/inputkit/layoutc/pkg/snapshot"
	"github.com/inputkit/layoutc/pkg/system"
)

func main() {
	layoutName := flag.String("layout", "", "Layout to generate constants for")
	snapPath := flag.String("snapshot", "", "Compiled snapshot to read instead of a layout")
	pkg := flag.String("package", "", "Package name of the generated file")
	prefix := flag.String("prefix", "", "Identifier prefix (default: the device name)")
	output := flag.String("o", "", "Output file")
	flag.Parse()

	if (*layoutName == "") == (*snapPath == "") || *pkg == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: layoutgen (-layout <name> | -snapshot <file>) -package <name> -o <file> [-prefix <ident>] [file|dir]...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*layoutName, *snapPath, *pkg, *prefix, *output, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(layoutName, snapPath, pkg, prefix, output string, paths []string) error {
	var (
		snap *snapshot.Snapshot
		err  error
	)
	if snapPath != "" {
		snap, err = snapshot.ReadFile(snapPath)
	} else {
		snap, err = compile(layoutName, paths)
	}
	if err != nil {
		return err
	}

	code, err := Generate(snap, GenerateOptions{Package: pkg, Prefix: prefix})
	if err != nil {
		return fmt.Errorf("generating %s: %w", snap.Layout, err)
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s\n", output)
	return nil
}

// compile builds a device from layoutName over the built-ins and the
// layouts found in paths.
func compile(layoutName string, paths []string) (*snapshot.Snapshot, error) {
	reg, err := builtin.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		descs, err := loadPath(p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		for _, d := range descs {
			if err := reg.Register(d); err != nil {
				return nil, err
			}
		}
	}

	sys := system.New(reg, system.Config{Strict: true})
	defer sys.Close()
	dev, err := sys.AddDevice(layoutName)
	if err != nil {
		return nil, err
	}

	var snap *snapshot.Snapshot
	err = reg.Read(func(src registry.Source) error {
		var err error
		snap, err = snapshot.FromDevice(dev, src)
		return err
	})
	return snap, err
}

func loadPath(path string) ([]*layout.Description, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return layoutfile.LoadDir(path)
	}
	return layoutfile.Load(path)
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
