package pathquery

import (
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/merge"
	"github.com/inputkit/layoutc/pkg/registry"
)

// AnyLayout is reported when a path may refer to controls of any layout.
const AnyLayout = "*"

// TryGetDeviceLayout returns the device layout a path names. A wildcard
// device segment yields AnyLayout; a literal device name gives no answer
// since device names are only known at runtime.
func TryGetDeviceLayout(path string) (string, bool) {
	p, err := Parse(path)
	if err != nil {
		return "", false
	}
	dev := p.Device()
	switch {
	case dev.Kind == SegmentLayout:
		return dev.Text, true
	case dev.IsWildcard():
		return AnyLayout, true
	default:
		return "", false
	}
}

// TryGetControlLayout returns the layout of the controls a path refers to,
// looked up in src starting from a <Layout> device segment. A final
// <Layout> segment is returned as written. The answer is AnyLayout when
// the last segment is a wildcard, and there is none when the matched
// controls disagree or the path names only a device.
func TryGetControlLayout(src registry.Source, path string) (string, bool) {
	p, err := Parse(path)
	if err != nil {
		return "", false
	}
	segs := p.Controls()
	if len(segs) == 0 {
		return "", false
	}
	last := segs[len(segs)-1]
	if last.Kind == SegmentLayout {
		return last.Text, true
	}
	if p.Device().Kind != SegmentLayout {
		return "", false
	}

	res := merge.NewResolver(src)
	current := []string{p.Device().Text}
	for i, seg := range segs {
		if i == len(segs)-1 && seg.IsWildcard() {
			return AnyLayout, true
		}
		var next []string
		for _, name := range current {
			items, err := staticItems(res, name, seg, nil)
			if err != nil {
				return "", false
			}
			for _, it := range items {
				if !layout.ContainsFold(next, it.Layout) {
					next = append(next, it.Layout)
				}
			}
		}
		if len(next) == 0 {
			return "", false
		}
		current = next
	}
	if len(current) != 1 {
		return "", false
	}
	return current[0], true
}

// staticItems returns the items of the named layout that seg selects.
// Usage segments search nested control layouts as well.
func staticItems(res *merge.Resolver, name string, seg Segment, stack []string) ([]layout.ControlItem, error) {
	if layout.ContainsFold(stack, name) {
		return nil, nil
	}
	stack = append(stack, name)
	eff, err := res.Resolve(name)
	if err != nil {
		return nil, err
	}
	var out []layout.ControlItem
	for _, it := range eff.Controls {
		if it.IsPath() || it.Layout == "" {
			continue
		}
		if staticMatch(res, seg, &it) {
			out = append(out, it)
		}
		if seg.Kind == SegmentUsage {
			nested, err := staticItems(res, it.Layout, seg, stack)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}

func staticMatch(res *merge.Resolver, seg Segment, it *layout.ControlItem) bool {
	switch seg.Kind {
	case SegmentLayout:
		return merge.IsA(res.Source(), it.Layout, seg.Text)
	case SegmentUsage:
		return layout.ContainsFold(it.Usages, seg.Text)
	default:
		if seg.IsWildcard() || layout.MatchGlob(seg.Text, it.Name) {
			return true
		}
		for _, a := range it.Aliases {
			if layout.MatchGlob(seg.Text, a) {
				return true
			}
		}
		return false
	}
}
