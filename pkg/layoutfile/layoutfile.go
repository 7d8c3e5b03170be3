// Package layoutfile reads and writes layout descriptions as structured
// text. Layout documents may be written in JSON or YAML; both are decoded
// with the YAML parser. Marshal emits the canonical YAML form, which
// re-parses to an identical description and re-serializes byte-for-byte.
package layoutfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inputkit/layoutc/pkg/layout"
)

// rawLayout is the document form of a layout.Description.
type rawLayout struct {
	Name         string       `yaml:"name"`
	Extend       string       `yaml:"extend,omitempty"`
	Type         string       `yaml:"type,omitempty"`
	Variant      string       `yaml:"variant,omitempty"`
	Format       string       `yaml:"format,omitempty"`
	DisplayName  string       `yaml:"displayName,omitempty"`
	CommonUsages []string     `yaml:"commonUsages,omitempty"`
	Device       *rawMatcher  `yaml:"device,omitempty"`
	Controls     []rawControl `yaml:"controls,omitempty"`
}

// rawMatcher holds the device matcher patterns.
type rawMatcher struct {
	Interface    string `yaml:"interface,omitempty"`
	Product      string `yaml:"product,omitempty"`
	Manufacturer string `yaml:"manufacturer,omitempty"`
	DeviceClass  string `yaml:"deviceClass,omitempty"`
	Version      string `yaml:"version,omitempty"`
}

// rawControl is the document form of a layout.ControlItem.
type rawControl struct {
	Name         string     `yaml:"name"`
	Layout       string     `yaml:"layout,omitempty"`
	Variant      string     `yaml:"variant,omitempty"`
	Usage        stringList `yaml:"usage,omitempty"`
	Usages       stringList `yaml:"usages,omitempty"`
	Alias        stringList `yaml:"alias,omitempty"`
	Aliases      stringList `yaml:"aliases,omitempty"`
	Parameters   string     `yaml:"parameters,omitempty"`
	Processors   string     `yaml:"processors,omitempty"`
	Format       string     `yaml:"format,omitempty"`
	Offset       *uint32    `yaml:"offset,omitempty"`
	Bit          *uint32    `yaml:"bit,omitempty"`
	SizeInBits   *uint32    `yaml:"sizeInBits,omitempty"`
	ArraySize    int        `yaml:"arraySize,omitempty"`
	UseStateFrom string     `yaml:"useStateFrom,omitempty"`
	Noisy        *bool      `yaml:"noisy,omitempty"`
	DisplayName  string     `yaml:"displayName,omitempty"`
	FieldType    string     `yaml:"fieldType,omitempty"`
}

// stringList accepts either a scalar or a sequence and emits a scalar for
// single-element lists. An empty but non-nil list is written as [], since
// it clears the inherited values.
type stringList []string

// IsZero lets omitempty drop only unset lists.
func (l stringList) IsZero() bool {
	return l == nil
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list", value.Line)
	}
}

func (l stringList) MarshalYAML() (any, error) {
	if len(l) == 1 {
		return l[0], nil
	}
	return []string(l), nil
}

// Parse decodes a single layout document.
func Parse(data []byte) (*layout.Description, error) {
	var raw rawLayout
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing layout: %w", layout.ErrInvalidLayout, err)
	}
	return raw.toDescription()
}

// ParseAll decodes every document of a multi-document stream.
func ParseAll(r io.Reader) ([]*layout.Description, error) {
	dec := yaml.NewDecoder(r)
	var out []*layout.Description
	for {
		var raw rawLayout
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing layout %d: %w", layout.ErrInvalidLayout, len(out)+1, err)
		}
		desc, err := raw.toDescription()
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
}

// Load parses every layout document in the file at path.
func Load(path string) ([]*layout.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	descs, err := ParseAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descs, nil
}

// LoadDir parses every .json, .yaml and .yml file in dir, in name order.
func LoadDir(dir string) ([]*layout.Description, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsLayoutFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []*layout.Description
	for _, name := range names {
		descs, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, descs...)
	}
	return out, nil
}

// IsLayoutFile reports whether name has a layout document extension.
func IsLayoutFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Marshal encodes the description in canonical form.
func Marshal(desc *layout.Description) ([]byte, error) {
	raw := fromDescription(desc)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("encoding layout %s: %w", desc.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *rawLayout) toDescription() (*layout.Description, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("%w: layout definition missing name", layout.ErrInvalidLayout)
	}
	format, err := layout.ParseFourCC(r.Format)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", r.Name, err)
	}
	desc := &layout.Description{
		Name:         r.Name,
		Extends:      r.Extend,
		Type:         r.Type,
		Variant:      r.Variant,
		StateFormat:  format,
		DisplayName:  r.DisplayName,
		CommonUsages: r.CommonUsages,
	}
	if r.Device != nil {
		desc.Matcher = r.Device.toMatcher()
	}
	for i := range r.Controls {
		item, err := r.Controls[i].toItem()
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", r.Name, err)
		}
		desc.Controls = append(desc.Controls, item)
	}
	return desc, nil
}

func (m *rawMatcher) toMatcher() layout.DeviceMatcher {
	var dm layout.DeviceMatcher
	add := func(key, pattern string) {
		if pattern != "" {
			dm = dm.With(key, pattern)
		}
	}
	add(layout.MatchInterface, m.Interface)
	add(layout.MatchProduct, m.Product)
	add(layout.MatchManufacturer, m.Manufacturer)
	add(layout.MatchDeviceClass, m.DeviceClass)
	add(layout.MatchVersion, m.Version)
	return dm
}

func (c *rawControl) toItem() (layout.ControlItem, error) {
	if strings.TrimSpace(c.Name) == "" {
		return layout.ControlItem{}, fmt.Errorf("%w: control without name", layout.ErrInvalidLayout)
	}
	item := layout.ControlItem{
		Name:         c.Name,
		Layout:       c.Layout,
		Variant:      c.Variant,
		Offset:       c.Offset,
		Bit:          c.Bit,
		SizeInBits:   c.SizeInBits,
		ArraySize:    c.ArraySize,
		UseStateFrom: c.UseStateFrom,
		Noisy:        c.Noisy,
		DisplayName:  c.DisplayName,
		FieldKind:    layout.FieldKind(c.FieldType),
	}
	if c.Usage != nil || c.Usages != nil {
		item.Usages = append(append([]string{}, c.Usage...), c.Usages...)
	}
	if c.Alias != nil || c.Aliases != nil {
		item.Aliases = append(append([]string{}, c.Alias...), c.Aliases...)
	}
	for _, u := range item.Usages {
		if strings.TrimSpace(u) == "" {
			return layout.ControlItem{}, fmt.Errorf("%w: empty usage on control %q", layout.ErrInvalidLayout, c.Name)
		}
	}

	var err error
	if item.Parameters, err = layout.ParseParameters(c.Parameters); err != nil {
		return layout.ControlItem{}, fmt.Errorf("control %s: %w", c.Name, err)
	}
	if item.Processors, err = layout.ParseProcessors(c.Processors); err != nil {
		return layout.ControlItem{}, fmt.Errorf("control %s: %w", c.Name, err)
	}
	if item.Format, err = layout.ParseFourCC(c.Format); err != nil {
		return layout.ControlItem{}, fmt.Errorf("control %s: %w", c.Name, err)
	}
	return item, nil
}

func fromDescription(d *layout.Description) *rawLayout {
	r := &rawLayout{
		Name:         d.Name,
		Extend:       d.Extends,
		Type:         d.Type,
		Variant:      d.Variant,
		Format:       d.StateFormat.String(),
		DisplayName:  d.DisplayName,
		CommonUsages: d.CommonUsages,
	}
	if !d.Matcher.IsEmpty() {
		m := &rawMatcher{}
		for _, p := range d.Matcher.Patterns {
			switch strings.ToLower(p.Key) {
			case "interface":
				m.Interface = p.Pattern
			case "product":
				m.Product = p.Pattern
			case "manufacturer":
				m.Manufacturer = p.Pattern
			case "deviceclass":
				m.DeviceClass = p.Pattern
			case "version":
				m.Version = p.Pattern
			}
		}
		r.Device = m
	}
	for i := range d.Controls {
		c := &d.Controls[i]
		r.Controls = append(r.Controls, rawControl{
			Name:         c.Name,
			Layout:       c.Layout,
			Variant:      c.Variant,
			Usage:        stringList(c.Usages),
			Alias:        stringList(c.Aliases),
			Parameters:   c.Parameters.String(),
			Processors:   layout.FormatProcessors(c.Processors),
			Format:       c.Format.String(),
			Offset:       c.Offset,
			Bit:          c.Bit,
			SizeInBits:   c.SizeInBits,
			ArraySize:    c.ArraySize,
			UseStateFrom: c.UseStateFrom,
			Noisy:        c.Noisy,
			DisplayName:  c.DisplayName,
			FieldType:    string(c.FieldKind),
		})
	}
	return r
}
