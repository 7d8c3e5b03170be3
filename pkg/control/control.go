package control

import (
	"fmt"
	"strings"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Control is a handle to one entry of a device's control table.
type Control struct {
	dev   *Device
	tree  *Tree
	index int
}

func (c Control) node() *Node {
	return &c.tree.nodes[c.index]
}

// IsValid reports whether the handle refers to a control.
func (c Control) IsValid() bool {
	return c.tree != nil
}

// Device returns the owning device.
func (c Control) Device() *Device { return c.dev }

// Index returns the position of the control in its device table.
func (c Control) Index() int { return c.index }

// IsDevice reports whether the control is the device itself.
func (c Control) IsDevice() bool { return c.index == 0 }

func (c Control) Name() string                  { return c.node().Name }
func (c Control) Path() string                  { return c.node().Path }
func (c Control) DisplayName() string           { return c.node().DisplayName }
func (c Control) Layout() string                { return c.node().Layout }
func (c Control) Variant() string               { return c.node().Variant }
func (c Control) Kind() Kind                    { return c.node().Kind }
func (c Control) Block() layout.StateBlock      { return c.node().Block }
func (c Control) Usages() []string              { return c.node().Usages }
func (c Control) Aliases() []string             { return c.node().Aliases }
func (c Control) Parameters() layout.Parameters { return c.node().Parameters }
func (c Control) Noisy() bool                   { return c.node().Noisy }

// LayoutChain returns the control layout and its bases.
func (c Control) LayoutChain() []string { return c.node().Chain }

// Processors returns the names of the control's pipeline stages.
func (c Control) Processors() []string {
	procs := c.node().Processors
	names := make([]string, len(procs))
	for i, p := range procs {
		names[i] = p.Name()
	}
	return names
}

// HasUsage reports whether the control carries usage u.
func (c Control) HasUsage(u string) bool {
	return layout.ContainsFold(c.node().Usages, u)
}

// Matches reports whether name is the control's name or one of its aliases.
func (c Control) Matches(name string) bool {
	n := c.node()
	return strings.EqualFold(n.Name, name) || layout.ContainsFold(n.Aliases, name)
}

// Parent returns the parent control; the device has none.
func (c Control) Parent() (Control, bool) {
	p := c.node().Parent
	if p < 0 {
		return Control{}, false
	}
	return Control{dev: c.dev, tree: c.tree, index: p}, true
}

// Children returns the direct children in declaration order.
func (c Control) Children() []Control {
	idx := c.node().Children
	out := make([]Control, len(idx))
	for i, j := range idx {
		out[i] = Control{dev: c.dev, tree: c.tree, index: j}
	}
	return out
}

// Child returns the first direct child matching name.
func (c Control) Child(name string) (Control, bool) {
	for _, j := range c.node().Children {
		child := Control{dev: c.dev, tree: c.tree, index: j}
		if child.Matches(name) {
			return child, true
		}
	}
	return Control{}, false
}

// Find resolves a slash path relative to c. On the device a leading
// segment naming the device itself is skipped.
func (c Control) Find(path string) (Control, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if c.IsDevice() && len(segs) > 0 && strings.EqualFold(segs[0], c.Name()) {
		if _, ok := c.Child(segs[0]); !ok {
			segs = segs[1:]
		}
	}
	cur := c
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		next, ok := cur.Child(seg)
		if !ok {
			return Control{}, false
		}
		cur = next
	}
	return cur, true
}

// Descendants returns every control below c, parents first.
func (c Control) Descendants() []Control {
	var out []Control
	for _, child := range c.Children() {
		out = append(out, child)
		out = append(out, child.Descendants()...)
	}
	return out
}

func (c Control) String() string {
	return c.Path()
}

// ReadFloat reads the processed value of a float control. Vector
// controls report their magnitude.
func (c Control) ReadFloat() (float64, error) {
	var v float64
	err := c.dev.withState(func(buf []byte) error {
		var err error
		v, err = c.readFloat(buf)
		return err
	})
	return v, err
}

// ReadVector2 reads the processed value of a stick, dpad or vector control.
func (c Control) ReadVector2() (Vector2, error) {
	var v Vector2
	err := c.dev.withState(func(buf []byte) error {
		var err error
		v, err = c.readVector2(buf)
		return err
	})
	return v, err
}

// ReadValue reads a float64 or a Vector2 depending on the control kind.
func (c Control) ReadValue() (any, error) {
	if c.Kind().HasVectorValue() {
		return c.ReadVector2()
	}
	return c.ReadFloat()
}

// IsPressed reports whether the control value reaches its press point.
func (c Control) IsPressed() (bool, error) {
	var pressed bool
	err := c.dev.withState(func(buf []byte) error {
		var err error
		pressed, err = c.isPressed(buf)
		return err
	})
	return pressed, err
}

func (c Control) noValue() error {
	return fmt.Errorf("%w: %s is a %s control without a value", layout.ErrInvalidOperation, c.Path(), c.Kind())
}

func (c Control) readFloat(buf []byte) (float64, error) {
	n := c.node()
	switch n.Kind {
	case KindAxis, KindButton:
		raw, err := readRawFloat(buf, n.Block)
		if err != nil {
			return 0, err
		}
		return c.processFloat(preprocess(raw, n.Parameters)), nil
	case KindDiscreteButton:
		raw, err := readRawInt(buf, n.Block)
		if err != nil {
			return 0, err
		}
		v := 0.0
		if inRange(raw, n.Parameters.Int("minValue", 0), n.Parameters.Int("maxValue", 0)) {
			v = 1
		}
		return c.processFloat(v), nil
	case KindStick, KindVector2, KindDpad:
		v, err := c.readVector2(buf)
		return v.Magnitude(), err
	default:
		return 0, c.noValue()
	}
}

func (c Control) readVector2(buf []byte) (Vector2, error) {
	var v Vector2
	switch c.Kind() {
	case KindStick, KindVector2:
		x, err := c.readChild(buf, "x")
		if err != nil {
			return Vector2{}, err
		}
		y, err := c.readChild(buf, "y")
		if err != nil {
			return Vector2{}, err
		}
		v = Vector2{X: x, Y: y}
	case KindDpad:
		var dirs [4]float64
		for i, name := range []string{"up", "down", "left", "right"} {
			child, ok := c.Child(name)
			if !ok {
				return Vector2{}, fmt.Errorf("%w: dpad %s has no %q button", layout.ErrInvalidOperation, c.Path(), name)
			}
			pressed, err := child.isPressed(buf)
			if err != nil {
				return Vector2{}, err
			}
			if pressed {
				dirs[i] = 1
			}
		}
		v = Vector2{X: dirs[3] - dirs[2], Y: dirs[0] - dirs[1]}
		if v.X != 0 && v.Y != 0 {
			v = v.Normalized()
		}
	default:
		return Vector2{}, c.noValue()
	}
	for _, p := range c.node().Processors {
		v = p.ProcessVector2(v, c)
	}
	return v, nil
}

func (c Control) readChild(buf []byte, name string) (float64, error) {
	child, ok := c.Child(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no %q control", layout.ErrInvalidOperation, c.Path(), name)
	}
	return child.readFloat(buf)
}

func (c Control) isPressed(buf []byte) (bool, error) {
	v, err := c.readFloat(buf)
	if err != nil {
		return false, err
	}
	return v >= c.node().Parameters.Float("pressPoint", c.dev.settings.PressPoint()), nil
}

func (c Control) processFloat(v float64) float64 {
	for _, p := range c.node().Processors {
		v = p.ProcessFloat(v, c)
	}
	return v
}

// preprocess applies the axis parameters scale, clamp, normalize and
// invert, in that order.
func preprocess(v float64, p layout.Parameters) float64 {
	if p.Bool("scale", false) {
		v *= p.Float("scaleFactor", 1)
	}
	if p.Bool("clamp", false) {
		v = clampTo(v, p.Float("clampMin", 0), p.Float("clampMax", 1))
	}
	if p.Bool("normalize", false) {
		v = normalizeValue(v, p.Float("normalizeMin", 0), p.Float("normalizeMax", 1), p.Float("normalizeZero", 0))
	}
	if p.Bool("invert", false) {
		v = -v
	}
	return v
}

// inRange tests v against [min,max], wrapping around when min > max.
func inRange(v, min, max int64) bool {
	if min > max {
		return v >= min || v <= max
	}
	return v >= min && v <= max
}

// WriteValueInto encodes v into buf at the control's state block. Floats,
// integers and booleans suit float controls; Vector2 suits stick, vector
// and dpad controls. Values are stored raw, without processing.
func (c Control) WriteValueInto(buf []byte, v any) error {
	n := c.node()
	switch n.Kind {
	case KindAxis, KindButton, KindDiscreteButton:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: cannot write %T to %s control %s", layout.ErrInvalidOperation, v, n.Kind, n.Path)
		}
		return writeRawFloat(buf, n.Block, f)
	case KindStick, KindVector2:
		vec, ok := v.(Vector2)
		if !ok {
			return fmt.Errorf("%w: cannot write %T to %s control %s", layout.ErrInvalidOperation, v, n.Kind, n.Path)
		}
		for _, part := range []struct {
			name  string
			value float64
		}{{"x", vec.X}, {"y", vec.Y}} {
			child, ok := c.Child(part.name)
			if !ok {
				return fmt.Errorf("%w: %s has no %q control", layout.ErrInvalidOperation, n.Path, part.name)
			}
			if err := child.WriteValueInto(buf, part.value); err != nil {
				return err
			}
		}
		return nil
	case KindDpad:
		vec, ok := v.(Vector2)
		if !ok {
			return fmt.Errorf("%w: cannot write %T to dpad %s", layout.ErrInvalidOperation, v, n.Path)
		}
		buttons := map[string]bool{
			"up":    vec.Y > 0,
			"down":  vec.Y < 0,
			"left":  vec.X < 0,
			"right": vec.X > 0,
		}
		for _, name := range []string{"up", "down", "left", "right"} {
			child, ok := c.Child(name)
			if !ok {
				return fmt.Errorf("%w: dpad %s has no %q button", layout.ErrInvalidOperation, n.Path, name)
			}
			if err := child.WriteValueInto(buf, buttons[name]); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.noValue()
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
