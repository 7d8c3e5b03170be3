package layout

import (
	"regexp"
	"strings"
)

// Matcher keys understood by DeviceMatcher.
const (
	MatchInterface    = "interface"
	MatchProduct      = "product"
	MatchManufacturer = "manufacturer"
	MatchDeviceClass  = "deviceClass"
	MatchVersion      = "version"
)

// Descriptor describes a piece of hardware as reported by platform
// discovery.
type Descriptor struct {
	Interface    string
	Product      string
	Manufacturer string
	DeviceClass  string
	Version      string
}

// Field returns the descriptor value for a matcher key (case-insensitive).
func (d Descriptor) Field(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "interface":
		return d.Interface, true
	case "product":
		return d.Product, true
	case "manufacturer":
		return d.Manufacturer, true
	case "deviceclass":
		return d.DeviceClass, true
	case "version":
		return d.Version, true
	default:
		return "", false
	}
}

// MatcherPattern is one key→pattern predicate.
type MatcherPattern struct {
	Key     string
	Pattern string
}

// DeviceMatcher is a conjunction of predicates over a Descriptor.
type DeviceMatcher struct {
	Patterns []MatcherPattern
}

// IsEmpty reports whether the matcher has no predicates. Empty matchers
// never match.
func (m DeviceMatcher) IsEmpty() bool {
	return len(m.Patterns) == 0
}

// With returns a copy of the matcher with an additional predicate.
func (m DeviceMatcher) With(key, pattern string) DeviceMatcher {
	out := m.Clone()
	out.Patterns = append(out.Patterns, MatcherPattern{Key: key, Pattern: pattern})
	return out
}

// Pattern returns the pattern registered for key.
func (m DeviceMatcher) Pattern(key string) (string, bool) {
	for _, p := range m.Patterns {
		if strings.EqualFold(p.Key, key) {
			return p.Pattern, true
		}
	}
	return "", false
}

// Clone returns a copy of the matcher.
func (m DeviceMatcher) Clone() DeviceMatcher {
	if m.Patterns == nil {
		return DeviceMatcher{}
	}
	out := make([]MatcherPattern, len(m.Patterns))
	copy(out, m.Patterns)
	return DeviceMatcher{Patterns: out}
}

// Matches reports whether every predicate is satisfied by desc. Patterns
// compare case-insensitively as exact strings, globs, or full-match
// regular expressions.
func (m DeviceMatcher) Matches(desc Descriptor) bool {
	if m.IsEmpty() {
		return false
	}
	for _, p := range m.Patterns {
		value, ok := desc.Field(p.Key)
		if !ok || !MatchPattern(p.Pattern, value) {
			return false
		}
	}
	return true
}

// MatchPattern matches value against pattern case-insensitively, first as
// a glob and then as an anchored regular expression.
func MatchPattern(pattern, value string) bool {
	if MatchGlob(pattern, value) {
		return true
	}
	re, err := regexp.Compile("(?i)^(?:" + pattern + ")$")
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// MatchGlob matches value against a glob where '*' matches any run of
// characters and '?' any single character. Comparison ignores case.
func MatchGlob(pattern, value string) bool {
	p := []rune(strings.ToLower(pattern))
	v := []rune(strings.ToLower(value))

	pi, vi := 0, 0
	star, mark := -1, 0
	for vi < len(v) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == v[vi]):
			pi++
			vi++
		case pi < len(p) && p[pi] == '*':
			star = pi
			mark = vi
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			vi = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
