package main

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/inputkit/layoutc/pkg/snapshot"
)

// GenerateOptions controls the generated file.
type GenerateOptions struct {
	Package string
	// Prefix starts every identifier. It defaults to the device name.
	Prefix string
}

type constData struct {
	Ident string
	Path  string
	Kind  string
	Byte  uint32
	Bit   uint32
	Bits  uint32
}

type fileData struct {
	Package  string
	Layout   string
	Prefix   string
	Size     uint32
	Format   string
	Hash     string
	Controls []constData
}

var fileTmpl = template.Must(template.New("file").Parse(`// Code generated by layoutgen from layout {{.Layout}}. DO NOT EDIT.
// Fingerprint: {{.Hash}}

package {{.Package}}

// {{.Prefix}}StateSize is the size of the {{.Layout}} state in bytes.
const {{.Prefix}}StateSize = {{.Size}}

// {{.Prefix}}StateFormat is the format code of the {{.Layout}} state.
const {{.Prefix}}StateFormat = "{{.Format}}"

// {{.Layout}} control offsets: Byte is the byte offset into the device
// state, Bit the bit offset from that byte and Bits the size in bits.
const (
{{- range .Controls}}
	// {{.Ident}}: {{.Path}} ({{.Kind}})
	{{.Ident}}Byte = {{.Byte}}
	{{.Ident}}Bit  = {{.Bit}}
	{{.Ident}}Bits = {{.Bits}}
{{- end}}
)
`))

// Generate renders the constants file for snap.
func Generate(snap *snapshot.Snapshot, opts GenerateOptions) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", err
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = snap.Device
	}
	prefix = identifier(prefix)
	if prefix == "" {
		return "", fmt.Errorf("no identifier can be derived from %q", snap.Device)
	}

	data := fileData{
		Package: opts.Package,
		Layout:  snap.Layout,
		Prefix:  prefix,
		Size:    snap.SizeInBytes,
		Format:  snap.Format,
		Hash:    snap.FingerprintHex(),
	}
	seen := make(map[string]string)
	devicePrefix := "/" + snap.Device + "/"
	for _, c := range snap.Controls[1:] {
		rel := strings.TrimPrefix(c.Path, devicePrefix)
		ident := prefix + identifier(rel)
		if other, dup := seen[ident]; dup {
			return "", fmt.Errorf("controls %s and %s both map to %s", other, c.Path, ident)
		}
		seen[ident] = c.Path
		data.Controls = append(data.Controls, constData{
			Ident: ident,
			Path:  rel,
			Kind:  c.Kind,
			Byte:  c.ByteOffset,
			Bit:   c.BitOffset,
			Bits:  c.SizeInBits,
		})
	}

	var b strings.Builder
	if err := fileTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}
	return b.String(), nil
}

// identifier converts a control path such as "leftStick/x" to an exported
// Go identifier fragment ("LeftStickX").
func identifier(path string) string {
	var b strings.Builder
	upper := true
	for _, r := range path {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s != "" && unicode.IsDigit(rune(s[0])) {
		s = "C" + s
	}
	return s
}
