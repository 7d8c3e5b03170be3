package layout

import (
	"strings"
)

// DefaultVariant is the variant tag of controls and layouts that do not
// name one.
const DefaultVariant = "default"

// TypeDevice is the backing type of layouts that neither name a type nor
// extend another layout.
const TypeDevice = "device"

// Description is a named layout as registered with a registry.
// Once registered a Description must not be mutated; use Clone.
type Description struct {
	// Name is the unique, case-insensitive identity of the layout.
	Name string

	// Extends names the base layout, if any.
	Extends string

	// Variant selects between mutually exclusive control sets.
	Variant string

	// Type is the backing control kind instantiated for the root
	// ("device", "stick", "button", ...). Empty inherits from the base.
	Type string

	// StateFormat is the format code of the layout's state.
	StateFormat FourCC

	// DisplayName is a human readable name.
	DisplayName string

	// CommonUsages lists usages devices of this layout commonly carry.
	CommonUsages []string

	// Matcher selects hardware this layout is meant for.
	Matcher DeviceMatcher

	// Controls in declaration order.
	Controls []ControlItem
}

// ControlItem is one entry of a layout's control list. Pointer fields and
// empty strings mean "unset": inherit from the base entry or compute
// automatically.
type ControlItem struct {
	// Name is the control name or a slash path to a nested control.
	Name string

	// Layout is the layout to instantiate. Empty modifies an existing control.
	Layout string

	Variant      string
	Usages       []string
	Aliases      []string
	Parameters   Parameters
	Processors   []ProcessorSpec
	Format       FourCC
	Offset       *uint32
	Bit          *uint32
	SizeInBits   *uint32
	ArraySize    int
	UseStateFrom string
	Noisy        *bool
	DisplayName  string

	// FieldKind is the primitive type of the native state field the
	// control was declared on, if the item came from a state type scan.
	FieldKind FieldKind
}

// Clone returns a deep copy of the description.
func (d *Description) Clone() *Description {
	c := *d
	c.CommonUsages = cloneStrings(d.CommonUsages)
	c.Matcher = d.Matcher.Clone()
	if d.Controls != nil {
		c.Controls = make([]ControlItem, len(d.Controls))
		for i := range d.Controls {
			c.Controls[i] = d.Controls[i].Clone()
		}
	}
	return &c
}

// Control returns the item with the given name (case-insensitive).
func (d *Description) Control(name string) (*ControlItem, bool) {
	i := d.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return &d.Controls[i], true
}

// IndexOf returns the index of the first item named name, or -1.
func (d *Description) IndexOf(name string) int {
	for i := range d.Controls {
		if strings.EqualFold(d.Controls[i].Name, name) {
			return i
		}
	}
	return -1
}

// EffectiveVariant returns the variant, defaulting to DefaultVariant.
func (d *Description) EffectiveVariant() string {
	if d.Variant == "" {
		return DefaultVariant
	}
	return d.Variant
}

// Clone returns a deep copy of the item.
func (c ControlItem) Clone() ControlItem {
	c.Usages = cloneStrings(c.Usages)
	c.Aliases = cloneStrings(c.Aliases)
	c.Parameters = c.Parameters.Clone()
	if c.Processors != nil {
		procs := make([]ProcessorSpec, len(c.Processors))
		for i, p := range c.Processors {
			procs[i] = ProcessorSpec{Name: p.Name, Parameters: p.Parameters.Clone()}
		}
		c.Processors = procs
	}
	c.Offset = cloneUint(c.Offset)
	c.Bit = cloneUint(c.Bit)
	c.SizeInBits = cloneUint(c.SizeInBits)
	if c.Noisy != nil {
		v := *c.Noisy
		c.Noisy = &v
	}
	return c
}

// IsPath reports whether the item addresses a nested control.
func (c *ControlItem) IsPath() bool {
	return strings.Contains(c.Name, "/")
}

// ParentPath splits a path item into its parent path and leaf name.
// For a bare name the parent path is empty.
func (c *ControlItem) ParentPath() (parent, leaf string) {
	i := strings.LastIndex(c.Name, "/")
	if i < 0 {
		return "", c.Name
	}
	return c.Name[:i], c.Name[i+1:]
}

// HasExplicitPlacement reports whether the item fixes its own offset or bit.
func (c *ControlItem) HasExplicitPlacement() bool {
	return c.Offset != nil || c.Bit != nil
}

// IsNoisy reports the noisy flag, false when unset.
func (c *ControlItem) IsNoisy() bool {
	return c.Noisy != nil && *c.Noisy
}

// MergeFrom overwrites every field that other specifies. Unset fields of
// other leave the receiver unchanged. Parameters merge by name.
func (c *ControlItem) MergeFrom(other *ControlItem) {
	if other.Layout != "" {
		c.Layout = other.Layout
	}
	if other.Variant != "" {
		c.Variant = other.Variant
	}
	if other.Usages != nil {
		c.Usages = cloneStrings(other.Usages)
	}
	if other.Aliases != nil {
		c.Aliases = cloneStrings(other.Aliases)
	}
	if other.Parameters != nil {
		c.Parameters = c.Parameters.Merge(other.Parameters)
	}
	if other.Processors != nil {
		c.Processors = other.Clone().Processors
	}
	if !other.Format.IsZero() {
		c.Format = other.Format
	}
	if other.Offset != nil {
		c.Offset = cloneUint(other.Offset)
	}
	if other.Bit != nil {
		c.Bit = cloneUint(other.Bit)
	}
	if other.SizeInBits != nil {
		c.SizeInBits = cloneUint(other.SizeInBits)
	}
	if other.ArraySize != 0 {
		c.ArraySize = other.ArraySize
	}
	if other.UseStateFrom != "" {
		c.UseStateFrom = other.UseStateFrom
	}
	if other.Noisy != nil {
		v := *other.Noisy
		c.Noisy = &v
	}
	if other.DisplayName != "" {
		c.DisplayName = other.DisplayName
	}
	if other.FieldKind != FieldNone {
		c.FieldKind = other.FieldKind
	}
}

// Uint returns a pointer to v, for populating optional item fields.
func Uint(v uint32) *uint32 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func cloneUint(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ContainsFold reports whether list holds s, ignoring case.
func ContainsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
