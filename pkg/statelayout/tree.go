package statelayout

import (
	"strings"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Node is one control of an expanded layout.
type Node struct {
	// Name is the leaf name of the control.
	Name string

	// Layout is the control layout the node was instantiated from.
	Layout string

	// Chain lists Layout and its bases, most derived first.
	Chain []string

	// Kind is the backing type of Layout, empty if none was declared.
	Kind string

	// Item holds the merged authored fields of the control.
	Item layout.ControlItem

	// Block is the absolute state block.
	Block layout.StateBlock

	Parent   *Node
	Children []*Node

	// relative is the block relative to the parent.
	relative     layout.StateBlock
	layoutFormat layout.FourCC
	align        uint32
	aliased      bool
}

// Path returns the slash-joined path from the root, starting with "/".
func (n *Node) Path() string {
	if n.Parent == nil {
		return "/" + n.Name
	}
	return n.Parent.Path() + "/" + n.Name
}

// IsAlias reports whether the node takes its state from another control.
func (n *Node) IsAlias() bool {
	return n.Item.UseStateFrom != ""
}

// Matches reports whether name is the node's name or one of its aliases.
func (n *Node) Matches(name string) bool {
	return strings.EqualFold(n.Name, name) || layout.ContainsFold(n.Item.Aliases, name)
}

// Child returns the first child matching name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Matches(name) {
			return c
		}
	}
	return nil
}

// Find resolves a slash path relative to n. Empty paths yield n.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits n and its descendants depth first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Tree is an expanded, placed layout.
type Tree struct {
	Root *Node

	// SizeInBytes is the device state size.
	SizeInBytes uint32

	// Alignment is the largest primitive alignment used.
	Alignment uint32

	// Layouts lists every layout the tree depends on, including bases.
	Layouts []string
}

// Count returns the number of nodes, the root included.
func (t *Tree) Count() int {
	n := 0
	t.Root.Walk(func(*Node) { n++ })
	return n
}

// DependsOn reports whether the tree was built from the named layout.
func (t *Tree) DependsOn(name string) bool {
	return layout.ContainsFold(t.Layouts, name)
}
