package snapshot

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/registry"
)

// Version is the current snapshot format version.
const Version = 1

// Snapshot is the compiled form of one device.
type Snapshot struct {
	Version     uint8     `cbor:"1,keyasint"`
	Device      string    `cbor:"2,keyasint"`
	Layout      string    `cbor:"3,keyasint"`
	Format      string    `cbor:"4,keyasint,omitempty"`
	SizeInBytes uint32    `cbor:"5,keyasint"`
	Layouts     []string  `cbor:"6,keyasint"`
	Fingerprint []byte    `cbor:"7,keyasint"`
	Controls    []Control `cbor:"8,keyasint"`
}

// Control is one row of the control table. Rows are in parent-first order
// and Parent indexes into the table; the device row has Parent -1.
type Control struct {
	Path       string   `cbor:"1,keyasint"`
	Layout     string   `cbor:"2,keyasint"`
	Kind       string   `cbor:"3,keyasint"`
	Format     string   `cbor:"4,keyasint,omitempty"`
	ByteOffset uint32   `cbor:"5,keyasint"`
	BitOffset  uint32   `cbor:"6,keyasint,omitempty"`
	SizeInBits uint32   `cbor:"7,keyasint"`
	Parent     int      `cbor:"8,keyasint"`
	Usages     []string `cbor:"9,keyasint,omitempty"`
	Aliases    []string `cbor:"10,keyasint,omitempty"`
	Noisy      bool     `cbor:"11,keyasint,omitempty"`
}

// FromDevice records dev. The fingerprint covers the layouts dev was built
// from as found in src, which should be the registry dev was built with.
func FromDevice(dev *control.Device, src registry.Source) (*Snapshot, error) {
	sum, err := Fingerprint(src, dev.Layouts())
	if err != nil {
		return nil, err
	}

	root := dev.Root()
	s := &Snapshot{
		Version:     Version,
		Device:      dev.Name(),
		Layout:      dev.Layout(),
		Format:      root.Block().Format.String(),
		SizeInBytes: dev.SizeInBytes(),
		Layouts:     dev.Layouts(),
		Fingerprint: sum[:],
	}
	controls := append([]control.Control{root}, dev.AllControls()...)
	for _, c := range controls {
		parent := -1
		if p, ok := c.Parent(); ok {
			parent = p.Index()
		}
		b := c.Block()
		s.Controls = append(s.Controls, Control{
			Path:       c.Path(),
			Layout:     c.Layout(),
			Kind:       c.Kind().String(),
			Format:     b.Format.String(),
			ByteOffset: b.ByteOffset,
			BitOffset:  b.BitOffset,
			SizeInBits: b.SizeInBits,
			Parent:     parent,
			Usages:     c.Usages(),
			Aliases:    c.Aliases(),
			Noisy:      c.Noisy(),
		})
	}
	return s, nil
}

// Fingerprint digests the canonical text of the named layouts, taken in
// case-insensitive name order.
func Fingerprint(src registry.Source, names []string) ([blake2b.Size256]byte, error) {
	var sum [blake2b.Size256]byte
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j]) })

	h, err := blake2b.New256(nil)
	if err != nil {
		return sum, err
	}
	for _, name := range sorted {
		desc, ok := src.Lookup(name)
		if !ok {
			return sum, registry.UnknownLayoutError(name, nil)
		}
		text, err := layoutfile.Marshal(desc)
		if err != nil {
			return sum, fmt.Errorf("fingerprint of %s: %w", name, err)
		}
		h.Write(text)
		h.Write([]byte{0})
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// FingerprintHex returns the fingerprint as a hex string.
func (s *Snapshot) FingerprintHex() string {
	return hex.EncodeToString(s.Fingerprint)
}

// Control returns the row with the given path, compared case-insensitively.
// The path may omit the device name.
func (s *Snapshot) Control(path string) (Control, bool) {
	path = strings.Trim(path, "/")
	full := "/" + s.Device + "/" + path
	for _, c := range s.Controls {
		if strings.EqualFold(c.Path, full) || strings.EqualFold(c.Path, "/"+path) {
			return c, true
		}
	}
	return Control{}, false
}

// Validate checks the structural invariants of s.
func (s *Snapshot) Validate() error {
	if s.Version == 0 || s.Version > Version {
		return fmt.Errorf("unsupported version %d", s.Version)
	}
	if len(s.Controls) == 0 {
		return errors.New("no controls")
	}
	if s.Controls[0].Parent != -1 {
		return errors.New("first row is not the device")
	}
	for i, c := range s.Controls[1:] {
		if c.Parent < 0 || c.Parent > i {
			return fmt.Errorf("control %s has parent %d outside the table", c.Path, c.Parent)
		}
	}
	if len(s.Fingerprint) != blake2b.Size256 {
		return fmt.Errorf("fingerprint of %d bytes", len(s.Fingerprint))
	}
	return nil
}
