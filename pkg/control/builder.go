package control

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/statelayout"
)

// Builder instantiates devices from placed layouts.
type Builder struct {
	kinds      *KindRegistry
	processors *ProcessorRegistry
	settings   *Settings
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithKinds sets the kind registry.
func WithKinds(k *KindRegistry) BuilderOption {
	return func(b *Builder) { b.kinds = k }
}

// WithProcessors sets the processor registry.
func WithProcessors(p *ProcessorRegistry) BuilderOption {
	return func(b *Builder) { b.processors = p }
}

// WithSettings sets the settings shared by built devices.
func WithSettings(s *Settings) BuilderOption {
	return func(b *Builder) { b.settings = s }
}

// NewBuilder creates a builder with the default registries.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.kinds == nil {
		b.kinds = NewKindRegistry()
	}
	if b.processors == nil {
		b.processors = NewProcessorRegistry()
	}
	if b.settings == nil {
		b.settings = NewSettings()
	}
	return b
}

// Settings returns the settings shared by built devices.
func (b *Builder) Settings() *Settings {
	return b.settings
}

// DeviceOption configures a device being built.
type DeviceOption func(*Device, *string)

// WithID sets the device identity instead of a fresh one.
func WithID(id uuid.UUID) DeviceOption {
	return func(d *Device, _ *string) { d.id = id }
}

// WithDescriptor records the hardware descriptor of the device.
func WithDescriptor(desc layout.Descriptor) DeviceOption {
	return func(d *Device, _ *string) { d.descriptor = desc }
}

// WithName overrides the device name, which defaults to the layout name.
func WithName(name string) DeviceOption {
	return func(_ *Device, n *string) { *n = name }
}

// Build creates a device from tree. It fails with ErrInvalidOperation when
// the root layout is not device-capable, ErrDuplicateControl when two
// siblings share a name, ErrUnknownControlType for unknown types, and
// ErrUnknownProcessor for unknown processors.
func (b *Builder) Build(tree *statelayout.Tree, opts ...DeviceOption) (*Device, error) {
	root := tree.Root
	if root.Kind != "" {
		kind, err := b.kinds.Lookup(root.Kind)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", root.Layout, err)
		}
		if kind != KindDevice {
			return nil, fmt.Errorf("%w: layout %s has control type %q and cannot back a device",
				layout.ErrInvalidOperation, root.Layout, root.Kind)
		}
	}

	dev := &Device{
		id:       uuid.New(),
		size:     tree.SizeInBytes,
		layouts:  append([]string(nil), tree.Layouts...),
		settings: b.settings,
	}
	name := root.Name
	for _, opt := range opts {
		opt(dev, &name)
	}

	t := &Tree{nodes: make([]Node, 0, tree.Count())}
	if err := b.add(t, root, -1, "", name, false); err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	dev.tree = t
	return dev, nil
}

// add appends n and its subtree in parent-before-child order.
func (b *Builder) add(t *Tree, n *statelayout.Node, parent int, parentPath, name string, noisy bool) error {
	path := joinPath(parentPath, name)

	kind := KindDevice
	if parent >= 0 {
		var err error
		if kind, err = b.childKind(n); err != nil {
			return fmt.Errorf("control %s: %w", path, err)
		}
	}

	procs := make([]Processor, 0, len(n.Item.Processors))
	for _, spec := range n.Item.Processors {
		p, err := b.processors.Create(spec, b.settings)
		if err != nil {
			return fmt.Errorf("control %s: %w", path, err)
		}
		procs = append(procs, p)
	}

	noisy = noisy || n.Item.IsNoisy()
	node := Node{
		Name:        name,
		Path:        path,
		DisplayName: n.Item.DisplayName,
		Layout:      n.Layout,
		Chain:       n.Chain,
		Variant:     n.Item.Variant,
		Kind:        kind,
		Block:       n.Block,
		Usages:      append([]string(nil), n.Item.Usages...),
		Aliases:     append([]string(nil), n.Item.Aliases...),
		Parameters:  n.Item.Parameters.Clone(),
		Processors:  procs,
		Noisy:       noisy,
		Parent:      parent,
	}
	if node.DisplayName == "" {
		node.DisplayName = name
	}
	if node.Variant == "" {
		node.Variant = layout.DefaultVariant
	}

	idx := len(t.nodes)
	t.nodes = append(t.nodes, node)
	if parent >= 0 {
		t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	}

	seen := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		k := strings.ToLower(c.Name)
		if seen[k] {
			return fmt.Errorf("%w: %q", layout.ErrDuplicateControl, joinPath(path, c.Name))
		}
		seen[k] = true
		if err := b.add(t, c, idx, path, c.Name, noisy); err != nil {
			return err
		}
	}
	return nil
}

// childKind maps a nested control's type to its kind. Controls without a
// type, and device layouts used as controls, are compounds.
func (b *Builder) childKind(n *statelayout.Node) (Kind, error) {
	if n.Kind == "" {
		return KindCompound, nil
	}
	kind, err := b.kinds.Lookup(n.Kind)
	if err != nil {
		return 0, err
	}
	if kind == KindDevice {
		return KindCompound, nil
	}
	return kind, nil
}
