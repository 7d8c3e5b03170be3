package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/registry"
)

// Effective is a fully flattened layout.
type Effective struct {
	layout.Description

	// Chain lists the layout and its bases, most derived first.
	Chain []string
}

// Inherits reports whether the layout is name or inherits from it.
func (e *Effective) Inherits(name string) bool {
	return layout.ContainsFold(e.Chain, name)
}

// Resolver resolves layouts against a source, caching results. A Resolver
// is not safe for concurrent use and must not outlive a registry change.
type Resolver struct {
	src   registry.Source
	cache map[string]*Effective
}

// NewResolver creates a resolver reading from src.
func NewResolver(src registry.Source) *Resolver {
	return &Resolver{src: src, cache: make(map[string]*Effective)}
}

// Source returns the source the resolver reads from.
func (r *Resolver) Source() registry.Source {
	return r.src
}

// Resolve returns a fresh effective description of the named layout.
func Resolve(src registry.Source, name string) (*Effective, error) {
	return NewResolver(src).Resolve(name)
}

// Resolve returns the effective description of the named layout. The
// result is shared with the cache and must not be mutated.
func (r *Resolver) Resolve(name string) (*Effective, error) {
	return r.resolve(name, nil)
}

func (r *Resolver) resolve(name string, visiting []string) (*Effective, error) {
	k := strings.ToLower(name)
	if eff, ok := r.cache[k]; ok {
		return eff, nil
	}
	if layout.ContainsFold(visiting, name) {
		return nil, fmt.Errorf("%w: inheritance cycle %s -> %s",
			layout.ErrInvalidLayout, strings.Join(visiting, " -> "), name)
	}

	desc, err := registry.Load(r.src, name)
	if err != nil {
		return nil, err
	}
	visiting = append(visiting, desc.Name)

	eff := &Effective{}
	if desc.Extends == "" {
		eff.Description = layout.Description{
			Name:         desc.Name,
			Variant:      desc.Variant,
			Type:         desc.Type,
			StateFormat:  desc.StateFormat,
			DisplayName:  desc.DisplayName,
			CommonUsages: append([]string(nil), desc.CommonUsages...),
		}
		eff.Chain = []string{desc.Name}
	} else {
		base, err := r.resolve(desc.Extends, visiting)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", desc.Name, err)
		}
		eff.Description = *base.Description.Clone()
		eff.Name = desc.Name
		eff.Chain = append([]string{desc.Name}, base.Chain...)
		if desc.Variant != "" {
			eff.Variant = desc.Variant
		}
		if desc.Type != "" {
			eff.Type = desc.Type
		}
		if !desc.StateFormat.IsZero() {
			eff.StateFormat = desc.StateFormat
		}
		if desc.DisplayName != "" {
			eff.DisplayName = desc.DisplayName
		}
		eff.CommonUsages = append(eff.CommonUsages, desc.CommonUsages...)
	}
	eff.Extends = desc.Extends
	eff.Matcher = desc.Matcher.Clone()

	// Own items are only filtered once a specific variant is selected, so
	// a variant-less base can carry the controls of every variant.
	variant := eff.EffectiveVariant()
	filterOwn := !strings.EqualFold(variant, layout.DefaultVariant)
	eff.Controls = filterVariant(eff.Controls, variant)
	inherited := len(eff.Controls)

	for i := range desc.Controls {
		item := &desc.Controls[i]
		if filterOwn && !variantApplies(item.Variant, variant) {
			continue
		}
		if err := applyItem(&eff.Description, inherited, item); err != nil {
			return nil, fmt.Errorf("layout %s: %w", desc.Name, err)
		}
	}

	expanded, err := r.expandArrays(eff.Controls)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", desc.Name, err)
	}
	eff.Controls = expanded

	r.cache[k] = eff
	return eff, nil
}

// variantApplies reports whether an item tagged tag is kept under the
// layout variant.
func variantApplies(tag, variant string) bool {
	return tag == "" ||
		strings.EqualFold(tag, variant) ||
		strings.EqualFold(tag, layout.DefaultVariant)
}

func filterVariant(items []layout.ControlItem, variant string) []layout.ControlItem {
	out := items[:0]
	for _, item := range items {
		if variantApplies(item.Variant, variant) {
			out = append(out, item)
		}
	}
	return out
}

// applyItem merges item into an inherited control of the same path or
// appends it. Only the first inherited items are merge targets, so a
// layout repeating one of its own names yields a duplicate. A new path
// item's parent must already be present.
func applyItem(eff *layout.Description, inherited int, item *layout.ControlItem) error {
	for i := 0; i < inherited; i++ {
		existing := &eff.Controls[i]
		if strings.EqualFold(existing.Name, item.Name) && variantsCompatible(existing.Variant, item.Variant) {
			existing.MergeFrom(item)
			return nil
		}
	}
	if item.IsPath() {
		first, _, _ := strings.Cut(item.Name, "/")
		if eff.IndexOf(first) < 0 {
			return fmt.Errorf("%w: %q in %q", layout.ErrUnknownParentControl, first, item.Name)
		}
	}
	eff.Controls = append(eff.Controls, item.Clone())
	return nil
}

func variantsCompatible(a, b string) bool {
	isDefault := func(v string) bool {
		return v == "" || strings.EqualFold(v, layout.DefaultVariant)
	}
	return isDefault(a) || isDefault(b) || strings.EqualFold(a, b)
}

// expandArrays replaces every array item with its indexed elements.
func (r *Resolver) expandArrays(items []layout.ControlItem) ([]layout.ControlItem, error) {
	needed := false
	for i := range items {
		if items[i].ArraySize > 0 {
			needed = true
			break
		}
	}
	if !needed {
		return items, nil
	}

	out := make([]layout.ControlItem, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.ArraySize <= 0 {
			out = append(out, *item)
			continue
		}
		elems, err := r.expandArray(item)
		if err != nil {
			return nil, err
		}
		out = append(out, elems...)
	}
	return out, nil
}

func (r *Resolver) expandArray(item *layout.ControlItem) ([]layout.ControlItem, error) {
	stride, err := r.elementBits(item)
	if err != nil {
		return nil, err
	}
	if stride == 0 && item.HasExplicitPlacement() {
		return nil, fmt.Errorf("%w: cannot determine element size of array %q", layout.ErrLayoutNotSet, item.Name)
	}

	elems := make([]layout.ControlItem, item.ArraySize)
	for i := range elems {
		e := item.Clone()
		e.Name = item.Name + strconv.Itoa(i)
		e.ArraySize = 0
		if item.DisplayName != "" {
			e.DisplayName = item.DisplayName + " " + strconv.Itoa(i)
		}
		if item.HasExplicitPlacement() {
			step := uint32(i) * stride
			if stride%8 == 0 {
				e.Offset = layout.Uint(deref(item.Offset) + step/8)
			} else {
				e.Offset = layout.Uint(deref(item.Offset))
				e.Bit = layout.Uint(deref(item.Bit) + step)
			}
		}
		elems[i] = e
	}
	return elems, nil
}

// elementBits returns the size of one array element: an explicit size,
// else the natural size of the element format.
func (r *Resolver) elementBits(item *layout.ControlItem) (uint32, error) {
	if item.SizeInBits != nil {
		return *item.SizeInBits, nil
	}
	format, err := r.ElementFormat(item)
	if err != nil {
		return 0, err
	}
	return format.SizeInBits(), nil
}

// ElementFormat returns the format of an item: its own format, else the
// format implied by its field kind, else the state format of its control
// layout. The zero code means none could be determined.
func (r *Resolver) ElementFormat(item *layout.ControlItem) (layout.FourCC, error) {
	if !item.Format.IsZero() {
		return item.Format, nil
	}
	if f := item.FieldKind.Format(); !f.IsZero() {
		return f, nil
	}
	if item.Layout == "" {
		return layout.FourCC{}, nil
	}
	return StateFormat(r.src, item.Layout)
}

// StateFormat returns the state format of the named layout, inherited
// from its bases when unset.
func StateFormat(src registry.Source, name string) (layout.FourCC, error) {
	var format layout.FourCC
	err := walk(src, name, func(d *layout.Description) bool {
		format = d.StateFormat
		return format.IsZero()
	})
	return format, err
}

// Type returns the backing type of the named layout, inherited from its
// bases when unset. A root layout without type is a device.
func Type(src registry.Source, name string) (string, error) {
	var kind string
	err := walk(src, name, func(d *layout.Description) bool {
		kind = d.Type
		return kind == ""
	})
	if err != nil {
		return "", err
	}
	if kind == "" {
		kind = layout.TypeDevice
	}
	return kind, nil
}

// Chain returns name followed by the names of its bases.
func Chain(src registry.Source, name string) ([]string, error) {
	var chain []string
	err := walk(src, name, func(d *layout.Description) bool {
		chain = append(chain, d.Name)
		return true
	})
	return chain, err
}

// IsA reports whether the layout name is base or inherits from it.
// Unknown layouts are never anything.
func IsA(src registry.Source, name, base string) bool {
	found := false
	_ = walk(src, name, func(d *layout.Description) bool {
		found = strings.EqualFold(d.Name, base)
		return !found
	})
	return found
}

// walk visits name and its bases, most derived first, while fn returns
// true.
func walk(src registry.Source, name string, fn func(*layout.Description) bool) error {
	var seen []string
	for name != "" {
		if layout.ContainsFold(seen, name) {
			return fmt.Errorf("%w: inheritance cycle at %s", layout.ErrInvalidLayout, name)
		}
		d, err := registry.Load(src, name)
		if err != nil {
			return err
		}
		if !fn(d) {
			return nil
		}
		seen = append(seen, d.Name)
		name = d.Extends
	}
	return nil
}

func deref(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}
