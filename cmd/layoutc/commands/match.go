package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/registry"
)

// ErrNoMatch is returned when no layout matches a descriptor.
var ErrNoMatch = errors.New("no matching layout")

// RunMatch prints the layout a device descriptor resolves to. A layout
// named after the device class is used when no matcher accepts desc.
func RunMatch(reg *registry.Registry, desc layout.Descriptor, w io.Writer) error {
	name, ok := reg.FindMatchingLayout(desc)
	how := "matcher"
	if !ok && desc.DeviceClass != "" {
		if d, found := reg.Lookup(desc.DeviceClass); found {
			name, ok, how = d.Name, true, "device class"
		}
	}
	if !ok {
		return fmt.Errorf("%w: product %q, manufacturer %q, interface %q, class %q",
			ErrNoMatch, desc.Product, desc.Manufacturer, desc.Interface, desc.DeviceClass)
	}
	fmt.Fprintf(w, "%s (%s)\n", name, how)
	return nil
}
