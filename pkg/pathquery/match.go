package pathquery

import (
	"time"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/log"
)

// Matcher evaluates paths against built devices.
type Matcher struct {
	logger log.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger traces every evaluated query.
func WithLogger(l log.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// NewMatcher returns a matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = log.OrNoop(m.logger)
	return m
}

// Match returns the controls of devices that query selects, device by
// device in depth-first order and without duplicates. A query naming only
// a device yields the device control itself.
func (m *Matcher) Match(query string, devices []*control.Device) ([]control.Control, error) {
	p, err := Parse(query)
	if err != nil {
		m.logger.Log(log.NewErrorEvent(log.LayerQuery, "", query, err))
		return nil, err
	}
	out := p.Match(devices)
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerQuery,
		Category:  log.CategoryQuery,
		Query:     &log.QueryEvent{Path: query, Matches: len(out)},
	})
	return out, nil
}

// Match parses query and evaluates it against devices.
func Match(query string, devices []*control.Device) ([]control.Control, error) {
	return NewMatcher().Match(query, devices)
}

// Match evaluates p against devices.
func (p *Path) Match(devices []*control.Device) []control.Control {
	var out []control.Control
	for _, dev := range devices {
		root := dev.Root()
		if !matchControl(p.Device(), root) {
			continue
		}
		candidates := []control.Control{root}
		for _, seg := range p.Controls() {
			candidates = step(seg, candidates)
			if len(candidates) == 0 {
				break
			}
		}
		out = append(out, candidates...)
	}
	return out
}

// Matches reports whether p selects c.
func (p *Path) Matches(c control.Control) bool {
	for _, m := range p.Match([]*control.Device{c.Device()}) {
		if m.Index() == c.Index() {
			return true
		}
	}
	return false
}

// step maps the candidates of one level to those of the next.
func step(seg Segment, candidates []control.Control) []control.Control {
	seen := make(map[int]bool)
	var next []control.Control
	add := func(c control.Control) {
		if !seen[c.Index()] {
			seen[c.Index()] = true
			next = append(next, c)
		}
	}
	for _, c := range candidates {
		pool := c.Children()
		if seg.Kind == SegmentUsage {
			pool = c.Descendants()
		}
		for _, child := range pool {
			if matchControl(seg, child) {
				add(child)
			}
		}
	}
	return next
}

func matchControl(seg Segment, c control.Control) bool {
	switch seg.Kind {
	case SegmentLayout:
		return layout.ContainsFold(c.LayoutChain(), seg.Text)
	case SegmentUsage:
		return c.HasUsage(seg.Text)
	default:
		if seg.IsWildcard() {
			return true
		}
		if layout.MatchGlob(seg.Text, c.Name()) {
			return true
		}
		for _, a := range c.Aliases() {
			if layout.MatchGlob(seg.Text, a) {
				return true
			}
		}
		return false
	}
}
