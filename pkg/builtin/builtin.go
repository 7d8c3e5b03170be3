// Package builtin provides the standard control and device layouts.
package builtin

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/registry"
)

//go:embed layouts/*.yaml
var files embed.FS

// Descriptions parses every built-in layout, in file then document order.
func Descriptions() ([]*layout.Description, error) {
	paths, err := fs.Glob(files, "layouts/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []*layout.Description
	for _, p := range paths {
		f, err := files.Open(p)
		if err != nil {
			return nil, err
		}
		descs, err := layoutfile.ParseAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("built-in %s: %w", p, err)
		}
		out = append(out, descs...)
	}
	return out, nil
}

// Register adds every built-in layout to reg.
func Register(reg *registry.Registry) error {
	descs, err := Descriptions()
	if err != nil {
		return err
	}
	for _, d := range descs {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in layouts.
func NewRegistry(opts ...registry.Option) (*registry.Registry, error) {
	reg := registry.New(opts...)
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
