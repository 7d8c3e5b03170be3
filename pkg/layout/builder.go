package layout

import (
	"fmt"
	"strings"
)

// Builder assembles a Description in code.
//
//	desc, err := layout.NewBuilder().
//		WithName("MyPad").
//		Extend("Gamepad").
//		AddControl("button").WithLayout("Button").WithUsages("Submit").
//		Build()
type Builder struct {
	desc     Description
	typeSet  bool
	controls []*ControlBuilder
	err      error
}

// ControlBuilder configures one control item of a Builder.
type ControlBuilder struct {
	parent *Builder
	item   ControlItem
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithName sets the layout name.
func (b *Builder) WithName(name string) *Builder {
	b.desc.Name = name
	return b
}

// WithType sets the backing control kind.
func (b *Builder) WithType(kind string) *Builder {
	b.desc.Type = kind
	b.typeSet = true
	return b
}

// Extend sets the base layout.
func (b *Builder) Extend(base string) *Builder {
	b.desc.Extends = base
	return b
}

// WithFormat sets the state format code.
func (b *Builder) WithFormat(code string) *Builder {
	f, err := ParseFourCC(code)
	if err != nil {
		b.fail(err)
		return b
	}
	b.desc.StateFormat = f
	return b
}

// WithVariant sets the layout variant.
func (b *Builder) WithVariant(variant string) *Builder {
	b.desc.Variant = variant
	return b
}

// WithDisplayName sets the display name.
func (b *Builder) WithDisplayName(name string) *Builder {
	b.desc.DisplayName = name
	return b
}

// WithCommonUsages appends common usages.
func (b *Builder) WithCommonUsages(usages ...string) *Builder {
	b.desc.CommonUsages = append(b.desc.CommonUsages, usages...)
	return b
}

// WithMatcher sets the device matcher.
func (b *Builder) WithMatcher(m DeviceMatcher) *Builder {
	b.desc.Matcher = m.Clone()
	return b
}

// AddControl starts a new control item.
func (b *Builder) AddControl(name string) *ControlBuilder {
	c := &ControlBuilder{parent: b, item: ControlItem{Name: name}}
	b.controls = append(b.controls, c)
	return c
}

// Build returns the assembled description. A layout that neither extends
// another layout nor names a type is a device layout.
func (b *Builder) Build() (*Description, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.desc.Name == "" {
		return nil, fmt.Errorf("%w: layout has no name", ErrInvalidLayout)
	}
	d := b.desc.Clone()
	if !b.typeSet && d.Extends == "" {
		d.Type = TypeDevice
	}
	d.Controls = make([]ControlItem, 0, len(b.controls))
	for _, c := range b.controls {
		d.Controls = append(d.Controls, c.item.Clone())
	}
	return d, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// AddControl starts another control on the same layout.
func (c *ControlBuilder) AddControl(name string) *ControlBuilder {
	return c.parent.AddControl(name)
}

// Build finishes the layout.
func (c *ControlBuilder) Build() (*Description, error) {
	return c.parent.Build()
}

// WithLayout sets the layout the control instantiates.
func (c *ControlBuilder) WithLayout(name string) *ControlBuilder {
	c.item.Layout = name
	return c
}

// WithUsages sets the control's usages. Empty usage strings are rejected.
func (c *ControlBuilder) WithUsages(usages ...string) *ControlBuilder {
	for _, u := range usages {
		if strings.TrimSpace(u) == "" {
			c.parent.fail(fmt.Errorf("%w: empty usage on control %q in layout %q",
				ErrInvalidLayout, c.item.Name, c.parent.desc.Name))
			return c
		}
	}
	c.item.Usages = append(c.item.Usages, usages...)
	return c
}

// WithAliases sets the control's aliases.
func (c *ControlBuilder) WithAliases(aliases ...string) *ControlBuilder {
	c.item.Aliases = append(c.item.Aliases, aliases...)
	return c
}

// WithParameters parses and sets the control's parameters.
func (c *ControlBuilder) WithParameters(s string) *ControlBuilder {
	p, err := ParseParameters(s)
	if err != nil {
		c.parent.fail(err)
		return c
	}
	c.item.Parameters = p
	return c
}

// WithProcessors parses and sets the control's processor pipeline.
func (c *ControlBuilder) WithProcessors(s string) *ControlBuilder {
	p, err := ParseProcessors(s)
	if err != nil {
		c.parent.fail(err)
		return c
	}
	c.item.Processors = p
	return c
}

// WithFormat sets the control's state format.
func (c *ControlBuilder) WithFormat(code string) *ControlBuilder {
	f, err := ParseFourCC(code)
	if err != nil {
		c.parent.fail(err)
		return c
	}
	c.item.Format = f
	return c
}

// WithVariant tags the control with a variant.
func (c *ControlBuilder) WithVariant(variant string) *ControlBuilder {
	c.item.Variant = variant
	return c
}

// WithOffset sets the parent-relative byte offset.
func (c *ControlBuilder) WithOffset(offset uint32) *ControlBuilder {
	c.item.Offset = Uint(offset)
	return c
}

// WithBit sets the bit offset.
func (c *ControlBuilder) WithBit(bit uint32) *ControlBuilder {
	c.item.Bit = Uint(bit)
	return c
}

// WithSizeInBits sets the size.
func (c *ControlBuilder) WithSizeInBits(size uint32) *ControlBuilder {
	c.item.SizeInBits = Uint(size)
	return c
}

// WithArraySize expands the control into n elements.
func (c *ControlBuilder) WithArraySize(n int) *ControlBuilder {
	c.item.ArraySize = n
	return c
}

// WithFieldKind records the primitive type of the backing state field.
func (c *ControlBuilder) WithFieldKind(kind FieldKind) *ControlBuilder {
	c.item.FieldKind = kind
	return c
}

// UsingStateFrom aliases the control's state to another control.
func (c *ControlBuilder) UsingStateFrom(path string) *ControlBuilder {
	c.item.UseStateFrom = path
	return c
}

// AsNoisy marks the control as noisy.
func (c *ControlBuilder) AsNoisy() *ControlBuilder {
	c.item.Noisy = Bool(true)
	return c
}

// WithDisplayName sets the control's display name.
func (c *ControlBuilder) WithDisplayName(name string) *ControlBuilder {
	c.item.DisplayName = name
	return c
}
