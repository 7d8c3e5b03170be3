package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// NamedValue is one name=value pair of a parameter list.
type NamedValue struct {
	Name  string
	Value string
}

// Parameters is an ordered list of named values forwarded to controls
// and processors.
type Parameters []NamedValue

// ParseParameters parses "a=1,b=2,flag". A name without a value means "true".
func ParseParameters(s string) (Parameters, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var params Parameters
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: parameter without name in %q", ErrInvalidLayout, s)
		}
		if !found {
			value = "true"
		}
		params = append(params, NamedValue{Name: name, Value: strings.TrimSpace(value)})
	}
	return params, nil
}

// String renders the list in the form accepted by ParseParameters.
func (p Parameters) String() string {
	parts := make([]string, len(p))
	for i, nv := range p {
		parts[i] = nv.Name + "=" + nv.Value
	}
	return strings.Join(parts, ",")
}

// Clone returns a copy of the list.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	copy(out, p)
	return out
}

// Merge returns p with every value of other applied; names present in both
// take other's value, new names are appended.
func (p Parameters) Merge(other Parameters) Parameters {
	out := p.Clone()
	for _, nv := range other {
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Name, nv.Name) {
				out[i].Value = nv.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, nv)
		}
	}
	if out == nil {
		out = Parameters{}
	}
	return out
}

// Get returns the raw value of name (case-insensitive).
func (p Parameters) Get(name string) (string, bool) {
	for _, nv := range p {
		if strings.EqualFold(nv.Name, name) {
			return nv.Value, true
		}
	}
	return "", false
}

// Float returns name as a float, or def when absent or malformed.
func (p Parameters) Float(name string, def float64) float64 {
	v, ok := p.Get(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Int returns name as an integer, or def when absent or malformed.
func (p Parameters) Int(name string, def int64) int64 {
	v, ok := p.Get(name)
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// Bool returns name as a boolean, or def when absent or malformed.
func (p Parameters) Bool(name string, def bool) bool {
	v, ok := p.Get(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ProcessorSpec names one stage of a processor pipeline.
type ProcessorSpec struct {
	Name       string
	Parameters Parameters
}

// String renders the spec as "name(a=1,b=2)" or "name".
func (s ProcessorSpec) String() string {
	if len(s.Parameters) == 0 {
		return s.Name
	}
	return s.Name + "(" + s.Parameters.String() + ")"
}

// ParseProcessors parses "deadzone(min=0.1,max=0.9),invert".
func ParseProcessors(s string) ([]ProcessorSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var specs []ProcessorSpec
	depth := 0
	start := 0
	flush := func(end int) error {
		part := strings.TrimSpace(s[start:end])
		if part == "" {
			return nil
		}
		spec, err := parseProcessor(part)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
		return nil
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parenthesis in %q", ErrInvalidLayout, s)
			}
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parenthesis in %q", ErrInvalidLayout, s)
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	return specs, nil
}

func parseProcessor(s string) (ProcessorSpec, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return ProcessorSpec{Name: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return ProcessorSpec{}, fmt.Errorf("%w: malformed processor %q", ErrInvalidLayout, s)
	}
	name := strings.TrimSpace(s[:open])
	if name == "" {
		return ProcessorSpec{}, fmt.Errorf("%w: processor without name in %q", ErrInvalidLayout, s)
	}
	params, err := ParseParameters(s[open+1 : len(s)-1])
	if err != nil {
		return ProcessorSpec{}, err
	}
	return ProcessorSpec{Name: name, Parameters: params}, nil
}

// FormatProcessors renders a pipeline in the form accepted by ParseProcessors.
func FormatProcessors(specs []ProcessorSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
