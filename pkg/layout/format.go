package layout

import (
	"fmt"
	"strings"
)

// FourCC is a four character code identifying a state format.
// The zero value means "not set".
type FourCC [4]byte

// Primitive state formats.
var (
	FormatBit     = MakeFourCC("BIT")
	FormatSByte   = MakeFourCC("SBYT")
	FormatByte    = MakeFourCC("BYTE")
	FormatShort   = MakeFourCC("SHRT")
	FormatUShort  = MakeFourCC("USHT")
	FormatInt     = MakeFourCC("INT")
	FormatUInt    = MakeFourCC("UINT")
	FormatLong    = MakeFourCC("LNG")
	FormatFloat   = MakeFourCC("FLT")
	FormatDouble  = MakeFourCC("DBL")
	FormatVector2 = MakeFourCC("VEC2")
	FormatVector3 = MakeFourCC("VEC3")
	FormatVec2Sh  = MakeFourCC("VC2S")
	FormatVec2By  = MakeFourCC("VC2B")
)

// MakeFourCC builds a code from up to four characters; shorter codes are
// padded with spaces.
func MakeFourCC(s string) FourCC {
	var c FourCC
	for i := range c {
		if i < len(s) {
			c[i] = s[i]
		} else {
			c[i] = ' '
		}
	}
	return c
}

// ParseFourCC parses a code, rejecting codes longer than four characters.
// An empty string yields the zero (unset) code.
func ParseFourCC(s string) (FourCC, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FourCC{}, nil
	}
	if len(s) > 4 {
		return FourCC{}, fmt.Errorf("%w: format code %q longer than 4 characters", ErrInvalidLayout, s)
	}
	return MakeFourCC(strings.ToUpper(s)), nil
}

// IsZero reports whether the code is unset.
func (c FourCC) IsZero() bool {
	return c == FourCC{}
}

// String returns the code without padding.
func (c FourCC) String() string {
	if c.IsZero() {
		return ""
	}
	return strings.TrimRight(string(c[:]), " ")
}

// formatInfo describes the natural size and alignment of a primitive format.
type formatInfo struct {
	sizeInBits uint32
	alignBytes uint32
}

var formats = map[FourCC]formatInfo{
	FormatBit:     {1, 1},
	FormatSByte:   {8, 1},
	FormatByte:    {8, 1},
	FormatShort:   {16, 2},
	FormatUShort:  {16, 2},
	FormatInt:     {32, 4},
	FormatUInt:    {32, 4},
	FormatLong:    {64, 8},
	FormatFloat:   {32, 4},
	FormatDouble:  {64, 8},
	FormatVector2: {64, 4},
	FormatVector3: {96, 4},
	FormatVec2Sh:  {32, 2},
	FormatVec2By:  {16, 1},
}

// SizeInBits returns the natural size of the format, or 0 when the format
// has no fixed size (device and custom codes).
func (c FourCC) SizeInBits() uint32 {
	return formats[c].sizeInBits
}

// Alignment returns the natural byte alignment of the format (1 if unknown).
func (c FourCC) Alignment() uint32 {
	if f, ok := formats[c]; ok {
		return f.alignBytes
	}
	return 1
}

// IsPrimitive reports whether the format has a fixed natural size.
func (c FourCC) IsPrimitive() bool {
	_, ok := formats[c]
	return ok
}

// FieldKind names the primitive type of a native state field that a
// control was declared on. It is supplied by attribute scanners and is
// used to infer a control's format.
type FieldKind string

// Field kinds.
const (
	FieldNone       FieldKind = ""
	FieldSByte      FieldKind = "sbyte"
	FieldByte       FieldKind = "byte"
	FieldShort      FieldKind = "short"
	FieldUShort     FieldKind = "ushort"
	FieldInt        FieldKind = "int"
	FieldUInt       FieldKind = "uint"
	FieldLong       FieldKind = "long"
	FieldFloat      FieldKind = "float"
	FieldDouble     FieldKind = "double"
	FieldFixedArray FieldKind = "fixedArray"
)

// Format returns the format inferred from the field kind. Fixed-size
// arrays have no inferable element type and return the zero code.
func (k FieldKind) Format() FourCC {
	switch k {
	case FieldSByte:
		return FormatSByte
	case FieldByte:
		return FormatByte
	case FieldShort:
		return FormatShort
	case FieldUShort:
		return FormatUShort
	case FieldInt:
		return FormatInt
	case FieldUInt:
		return FormatUInt
	case FieldLong:
		return FormatLong
	case FieldFloat:
		return FormatFloat
	case FieldDouble:
		return FormatDouble
	default:
		return FourCC{}
	}
}

// StateBlock binds a control to a region of its device's state buffer.
type StateBlock struct {
	Format     FourCC
	ByteOffset uint32
	BitOffset  uint32
	SizeInBits uint32
}

// SizeInBytes returns the number of bytes the block touches, counting
// from ByteOffset.
func (b StateBlock) SizeInBytes() uint32 {
	return (b.BitOffset + b.SizeInBits + 7) / 8
}

// EndBit returns the absolute bit position just past the block.
func (b StateBlock) EndBit() uint64 {
	return uint64(b.ByteOffset)*8 + uint64(b.BitOffset) + uint64(b.SizeInBits)
}

// String renders the block as "FMT@byte.bit:size".
func (b StateBlock) String() string {
	return fmt.Sprintf("%s@%d.%d:%d", b.Format, b.ByteOffset, b.BitOffset, b.SizeInBits)
}
