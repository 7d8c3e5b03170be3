package control

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Node is one entry of a device's control table.
type Node struct {
	Name        string
	Path        string
	DisplayName string
	Layout      string
	Chain       []string
	Variant     string
	Kind        Kind
	Block       layout.StateBlock
	Usages      []string
	Aliases     []string
	Parameters  layout.Parameters
	Processors  []Processor
	Noisy       bool

	// Parent is the parent index, -1 for the device.
	Parent   int
	Children []int
}

// Tree is the arena of a device's controls. Index 0 is the device.
// A Tree is immutable once built.
type Tree struct {
	nodes []Node
}

// Len returns the number of controls, the device included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the entry at index i.
func (t *Tree) Node(i int) *Node {
	return &t.nodes[i]
}

// Device is the root of a control tree and the unit attached to a state
// buffer.
type Device struct {
	mu sync.RWMutex

	id         uuid.UUID
	descriptor layout.Descriptor
	tree       *Tree
	size       uint32
	layouts    []string
	settings   *Settings
	state      []byte
}

// ID returns the device identity. It is preserved across rebuilds.
func (d *Device) ID() uuid.UUID {
	return d.id
}

// Descriptor returns the hardware descriptor the device was created for.
func (d *Device) Descriptor() layout.Descriptor {
	return d.descriptor
}

func (d *Device) current() *Tree {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.current().nodes[0].Name
}

// Layout returns the device layout name.
func (d *Device) Layout() string {
	return d.current().nodes[0].Layout
}

// SizeInBytes returns the size of the device state.
func (d *Device) SizeInBytes() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

// Layouts returns every layout the device was built from.
func (d *Device) Layouts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.layouts...)
}

// DependsOn reports whether the device was built from the named layout.
func (d *Device) DependsOn(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return layout.ContainsFold(d.layouts, name)
}

// Root returns the device control.
func (d *Device) Root() Control {
	return Control{dev: d, tree: d.current(), index: 0}
}

// Control finds a control by path relative to the device, matching names
// and aliases case-insensitively. A leading device name is accepted.
func (d *Device) Control(path string) (Control, bool) {
	return d.Root().Find(path)
}

// MustControl is like Control but panics when the path does not exist.
func (d *Device) MustControl(path string) Control {
	c, ok := d.Control(path)
	if !ok {
		panic(fmt.Sprintf("control %q not found on %s", path, d.Name()))
	}
	return c
}

// AllControls returns every control except the device, parents first.
func (d *Device) AllControls() []Control {
	t := d.current()
	out := make([]Control, 0, len(t.nodes)-1)
	for i := 1; i < len(t.nodes); i++ {
		out = append(out, Control{dev: d, tree: t, index: i})
	}
	return out
}

// Children returns the direct children of the device.
func (d *Device) Children() []Control {
	return d.Root().Children()
}

// Attach binds an externally owned state buffer to the device. The buffer
// must hold at least SizeInBytes bytes.
func (d *Device) Attach(buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uint32(len(buf)) < d.size {
		return fmt.Errorf("%w: state buffer of %d bytes is smaller than device state of %d bytes",
			layout.ErrInvalidOperation, len(buf), d.size)
	}
	d.state = buf
	return nil
}

// Detach unbinds the state buffer.
func (d *Device) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = nil
}

// IsAttached reports whether a state buffer is bound.
func (d *Device) IsAttached() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state != nil
}

// UpdateState copies data into the attached buffer.
func (d *Device) UpdateState(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == nil {
		return fmt.Errorf("%w: device %s has no state attached", layout.ErrInvalidOperation, d.tree.nodes[0].Name)
	}
	copy(d.state, data)
	return nil
}

// withState runs fn with the attached buffer under the read lock.
func (d *Device) withState(fn func(buf []byte) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state == nil {
		return fmt.Errorf("%w: device %s has no state attached", layout.ErrInvalidOperation, d.tree.nodes[0].Name)
	}
	return fn(d.state)
}

// Replace swaps in the tree of next, a rebuild of the same device. The
// identity, descriptor and attached buffer are kept; the buffer is
// detached when it is too small for the new layout.
func (d *Device) Replace(next *Device) {
	next.mu.RLock()
	tree, size, layouts := next.tree, next.size, next.layouts
	next.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tree = tree
	d.size = size
	d.layouts = layouts
	if uint32(len(d.state)) < size {
		d.state = nil
	}
}

// String returns the device name and id.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name(), d.id)
}

func joinPath(parent, name string) string {
	return strings.TrimSuffix(parent, "/") + "/" + name
}
