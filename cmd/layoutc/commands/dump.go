package commands

import (
	"io"

	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/merge"
	"github.com/inputkit/layoutc/pkg/registry"
)

// RunDump writes the flattened description of the named layout as YAML.
// The output stands alone: it names no base layout.
func RunDump(reg *registry.Registry, name string, w io.Writer) error {
	return reg.Read(func(src registry.Source) error {
		eff, err := merge.Resolve(src, name)
		if err != nil {
			return err
		}
		flat := eff.Description.Clone()
		flat.Extends = ""
		data, err := layoutfile.Marshal(flat)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}
