package catalog

import (
	"context"
	"fmt"

	"github.com/inputkit/layoutc/pkg/registry"
)

// Listener mirrors registry changes into c. A failed write rejects the
// change, so the registry and the catalog stay in step.
func (c *Catalog) Listener() registry.Listener {
	return registry.ListenerFunc(func(ev registry.ChangeEvent) error {
		ctx := context.Background()
		var err error
		switch ev.Kind {
		case registry.Added, registry.Replaced:
			desc := ev.New
			if desc == nil {
				desc, err = registry.Load(ev.Source, ev.Name)
				if err != nil {
					break
				}
			}
			err = c.Save(ctx, desc)
		case registry.Removed:
			err = c.Delete(ctx, ev.Name)
		}
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		return nil
	})
}
