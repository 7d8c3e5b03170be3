package commands

import (
	"fmt"
	"io"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/pathquery"
	"github.com/inputkit/layoutc/pkg/registry"
)

// RunQuery adds a device for each named layout and prints the controls
// matching query, followed by the layout the query resolves to statically.
func RunQuery(env *Env, layouts []string, query string, w io.Writer) error {
	for _, name := range layouts {
		if _, err := env.System.AddDevice(name); err != nil {
			return err
		}
	}

	controls, err := env.System.GetControls(query)
	if err != nil {
		return err
	}
	printControls(w, controls)

	_ = env.Registry.Read(func(src registry.Source) error {
		if name, ok := pathquery.TryGetControlLayout(src, query); ok {
			fmt.Fprintf(w, "Control layout: %s\n", name)
		}
		return nil
	})
	return nil
}

func printControls(w io.Writer, controls []control.Control) {
	for _, c := range controls {
		fmt.Fprintf(w, "%-36s %-16s %s\n", c.Path(), c.Layout(), c.Block())
	}
	fmt.Fprintf(w, "%d control(s)\n", len(controls))
}
