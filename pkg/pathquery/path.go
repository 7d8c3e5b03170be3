package pathquery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for malformed path strings.
var ErrInvalidPath = errors.New("invalid control path")

// SegmentKind tells how a segment is matched.
type SegmentKind uint8

const (
	// SegmentName matches names and aliases, with glob wildcards.
	SegmentName SegmentKind = iota
	// SegmentLayout matches the layout chain of a control.
	SegmentLayout
	// SegmentUsage matches usages over a whole subtree.
	SegmentUsage
)

// Segment is one parsed path component.
type Segment struct {
	Kind SegmentKind
	Text string
}

// IsWildcard reports whether the segment matches every control of a level.
func (s Segment) IsWildcard() bool {
	return s.Kind == SegmentName && strings.Trim(s.Text, "*") == ""
}

func (s Segment) String() string {
	switch s.Kind {
	case SegmentLayout:
		return "<" + s.Text + ">"
	case SegmentUsage:
		return "{" + s.Text + "}"
	default:
		return s.Text
	}
}

// Path is a parsed control path.
type Path struct {
	Segments []Segment
}

// Parse splits s into segments.
func Parse(s string) (*Path, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidPath, s)
	}
	parts := strings.Split(trimmed, "/")
	p := &Path{Segments: make([]Segment, 0, len(parts))}
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q segment %d: %v", ErrInvalidPath, s, i, err)
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, errors.New("empty segment")
	}
	for _, delim := range []struct {
		open, close byte
		kind        SegmentKind
	}{{'<', '>', SegmentLayout}, {'{', '}', SegmentUsage}} {
		if s[0] != delim.open {
			continue
		}
		if len(s) < 3 || s[len(s)-1] != delim.close {
			return Segment{}, fmt.Errorf("unterminated %q", string(delim.open))
		}
		return Segment{Kind: delim.kind, Text: s[1 : len(s)-1]}, nil
	}
	if strings.ContainsAny(s, "<>{}") {
		return Segment{}, fmt.Errorf("stray delimiter in %q", s)
	}
	return Segment{Kind: SegmentName, Text: s}, nil
}

// Device returns the device segment.
func (p *Path) Device() Segment {
	return p.Segments[0]
}

// Controls returns the segments below the device.
func (p *Path) Controls() []Segment {
	return p.Segments[1:]
}

func (p *Path) String() string {
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		parts[i] = s.String()
	}
	return "/" + strings.Join(parts, "/")
}
