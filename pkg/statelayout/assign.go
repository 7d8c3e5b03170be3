package statelayout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/merge"
)

// Options tune assignment.
type Options struct {
	// Strict reports an explicitly placed control that overlaps an
	// automatically packed sibling as ErrLayoutConflict.
	Strict bool
}

type assigner struct {
	res  *merge.Resolver
	opts Options
	deps []string
}

// Assign expands eff and computes the state block of every control.
func Assign(res *merge.Resolver, eff *merge.Effective, opts Options) (*Tree, error) {
	a := &assigner{res: res, opts: opts}

	root := &Node{
		Name:         eff.Name,
		Layout:       eff.Name,
		Chain:        eff.Chain,
		Kind:         eff.Type,
		layoutFormat: eff.StateFormat,
		Item: layout.ControlItem{
			Name:        eff.Name,
			Format:      eff.StateFormat,
			Variant:     eff.Variant,
			DisplayName: eff.DisplayName,
		},
	}
	if err := a.expand(root, eff, []string{eff.Name}); err != nil {
		return nil, err
	}
	if err := a.place(root); err != nil {
		return nil, err
	}
	root.Block = root.relative
	absolute(root)
	if err := a.resolveAliases(root); err != nil {
		return nil, err
	}

	var extent uint64
	root.Walk(func(n *Node) {
		if n != root {
			extent = max(extent, n.Block.EndBit())
		}
	})
	extent = max(extent, uint64(root.relative.SizeInBits))
	size := alignUp(uint32((extent+7)/8), root.align)
	root.Block.SizeInBits = size * 8

	return &Tree{
		Root:        root,
		SizeInBytes: size,
		Alignment:   root.align,
		Layouts:     a.deps,
	}, nil
}

func (a *assigner) addDeps(chain []string) {
	for _, name := range chain {
		if !layout.ContainsFold(a.deps, name) {
			a.deps = append(a.deps, name)
		}
	}
}

// expand applies the items of eff to node.
func (a *assigner) expand(node *Node, eff *merge.Effective, stack []string) error {
	a.addDeps(eff.Chain)
	for i := range eff.Controls {
		if err := a.apply(node, &eff.Controls[i], stack); err != nil {
			return fmt.Errorf("layout %s: %w", eff.Name, err)
		}
	}
	return nil
}

// apply adds a control for item below root, or modifies the nested
// control a path item addresses.
func (a *assigner) apply(root *Node, item *layout.ControlItem, stack []string) error {
	parent := root
	parentPath, leaf := item.ParentPath()
	if parentPath != "" {
		parent = root.Find(parentPath)
		if parent == nil {
			return fmt.Errorf("%w: %q", layout.ErrUnknownParentControl, item.Name)
		}
		if existing := parent.Child(leaf); existing != nil {
			return a.modify(existing, item, stack)
		}
	}
	if item.Layout == "" {
		return fmt.Errorf("%w: control %q", layout.ErrLayoutNotSet, item.Name)
	}

	child := &Node{Name: leaf, Parent: parent, Item: item.Clone()}
	child.Item.Name = leaf
	parent.Children = append(parent.Children, child)
	return a.instantiate(child, stack)
}

// modify merges item onto an existing nested control. A changed layout
// re-instantiates the control's subtree.
func (a *assigner) modify(n *Node, item *layout.ControlItem, stack []string) error {
	relayout := item.Layout != "" && !strings.EqualFold(item.Layout, n.Layout)
	n.Item.MergeFrom(item)
	n.Item.Name = n.Name
	if !relayout {
		return nil
	}
	n.Children = nil
	return a.instantiate(n, stack)
}

func (a *assigner) instantiate(n *Node, stack []string) error {
	name := n.Item.Layout
	if layout.ContainsFold(stack, name) {
		return fmt.Errorf("%w: control %q recursively uses layout %q", layout.ErrInvalidLayout, n.Path(), name)
	}
	sub, err := a.res.Resolve(name)
	if err != nil {
		if errors.Is(err, layout.ErrUnknownLayout) {
			return fmt.Errorf("%w: control %q: %w", layout.ErrUnknownControlType, n.Path(), err)
		}
		return fmt.Errorf("control %q: %w", n.Path(), err)
	}
	n.Layout = sub.Name
	n.Chain = sub.Chain
	n.Kind = sub.Type
	n.layoutFormat = sub.StateFormat
	return a.expand(n, sub, append(stack, sub.Name))
}

// format returns the node's format: explicit, else inferred from the
// field kind, else the layout's default.
func (n *Node) format() layout.FourCC {
	if !n.Item.Format.IsZero() {
		return n.Item.Format
	}
	if f := n.Item.FieldKind.Format(); !f.IsZero() {
		return f
	}
	return n.layoutFormat
}

// place computes n's size and the relative blocks of its children.
func (a *assigner) place(n *Node) error {
	format := n.format()
	align := uint32(1)

	var (
		cursor uint64
		extent uint64
		auto   []*Node
		manual []*Node
	)
	for _, c := range n.Children {
		if err := a.place(c); err != nil {
			return err
		}
		if c.IsAlias() {
			continue
		}
		size := uint64(c.relative.SizeInBits)
		switch {
		case c.Item.HasExplicitPlacement():
			c.relative.ByteOffset = deref(c.Item.Offset)
			c.relative.BitOffset = deref(c.Item.Bit)
			manual = append(manual, c)
		case size < 8 && size > 0:
			c.relative.ByteOffset = uint32(cursor / 8)
			c.relative.BitOffset = uint32(cursor % 8)
			cursor += size
			auto = append(auto, c)
		default:
			offset := alignUp(uint32((cursor+7)/8), c.align)
			c.relative.ByteOffset = offset
			c.relative.BitOffset = 0
			cursor = uint64(offset)*8 + size
			auto = append(auto, c)
		}
		extent = max(extent, relativeEnd(c))
		align = max(align, c.align)
	}

	if a.opts.Strict {
		if err := checkConflicts(n, manual, auto); err != nil {
			return err
		}
	}

	var size uint32
	switch {
	case n.Item.SizeInBits != nil:
		size = *n.Item.SizeInBits
	case format.SizeInBits() > 0:
		size = format.SizeInBits()
	default:
		size = uint32(extent)
	}
	if size == 0 && n.Parent != nil && !n.IsAlias() {
		return fmt.Errorf("%w: cannot determine state size of %q", layout.ErrLayoutNotSet, n.Path())
	}

	if format.IsPrimitive() {
		align = max(align, format.Alignment())
	}
	n.align = align
	n.relative.Format = format
	n.relative.SizeInBits = size
	return nil
}

func relativeEnd(n *Node) uint64 {
	return uint64(n.relative.ByteOffset)*8 + uint64(n.relative.BitOffset) + uint64(n.relative.SizeInBits)
}

// checkConflicts reports explicitly placed children overlapping
// automatically packed ones.
func checkConflicts(parent *Node, manual, auto []*Node) error {
	for _, m := range manual {
		mStart := relativeEnd(m) - uint64(m.relative.SizeInBits)
		for _, c := range auto {
			cStart := relativeEnd(c) - uint64(c.relative.SizeInBits)
			if mStart < relativeEnd(c) && cStart < relativeEnd(m) {
				return fmt.Errorf("%w: %q at %s overlaps automatically placed %q at %s in %q",
					layout.ErrLayoutConflict, m.Name, m.relative, c.Name, c.relative, parent.Path())
			}
		}
	}
	return nil
}

// absolute sets the absolute blocks below n from n's block.
func absolute(n *Node) {
	for _, c := range n.Children {
		if c.aliased {
			continue
		}
		c.Block = layout.StateBlock{
			Format:     c.relative.Format,
			ByteOffset: n.Block.ByteOffset + c.relative.ByteOffset,
			BitOffset:  n.Block.BitOffset + c.relative.BitOffset,
			SizeInBits: c.relative.SizeInBits,
		}
		absolute(c)
	}
}

func (a *assigner) resolveAliases(root *Node) error {
	var err error
	resolving := make(map[*Node]bool)
	root.Walk(func(n *Node) {
		if err == nil && n.IsAlias() {
			err = a.resolveAlias(n, resolving)
		}
	})
	return err
}

// resolveAlias copies the target block onto n and re-places n's subtree.
// The target path is relative to n's parent.
func (a *assigner) resolveAlias(n *Node, resolving map[*Node]bool) error {
	if n.aliased {
		return nil
	}
	if resolving[n] {
		return fmt.Errorf("%w: circular useStateFrom at %q", layout.ErrInvalidLayout, n.Path())
	}
	resolving[n] = true

	scope := n.Parent
	if scope == nil {
		scope = n
	}
	target := scope.Find(n.Item.UseStateFrom)
	if target == nil {
		return fmt.Errorf("%w: useStateFrom %q of %q not found", layout.ErrInvalidLayout, n.Item.UseStateFrom, n.Path())
	}
	for p := target; p != nil; p = p.Parent {
		if p == n {
			return fmt.Errorf("%w: %q takes state from its own descendant", layout.ErrInvalidLayout, n.Path())
		}
	}
	// Aliased ancestors of the target must settle first.
	var chain []*Node
	for p := target; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].IsAlias() {
			if err := a.resolveAlias(chain[i], resolving); err != nil {
				return err
			}
		}
	}

	n.Block = target.Block
	absolute(n)
	n.aliased = true
	return nil
}

func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

func deref(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}
