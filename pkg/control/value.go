package control

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Vector2 is a two dimensional value.
type Vector2 struct {
	X, Y float64
}

// Magnitude returns the euclidean length.
func (v Vector2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vector2) Normalized() Vector2 {
	m := v.Magnitude()
	if m == 0 {
		return Vector2{}
	}
	return Vector2{X: v.X / m, Y: v.Y / m}
}

// Scale returns v multiplied by f.
func (v Vector2) Scale(f float64) Vector2 {
	return Vector2{X: v.X * f, Y: v.Y * f}
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// bitPosition returns the byte index and bit within it of the block's
// first bit. Bit offsets may exceed 7 for packed sub-byte controls.
func bitPosition(b layout.StateBlock) (int, uint) {
	abs := uint64(b.ByteOffset)*8 + uint64(b.BitOffset)
	return int(abs / 8), uint(abs % 8)
}

// checkBounds reports a block that does not fit buf. Whole-byte formats
// are decoded at their natural width whatever the block's size.
func checkBounds(buf []byte, b layout.StateBlock) error {
	end := b.EndBit()
	if n := b.Format.SizeInBits(); n%8 == 0 && n > 0 {
		end = max(end, uint64(b.ByteOffset)*8+uint64(n))
	}
	if end > uint64(len(buf))*8 {
		return fmt.Errorf("%w: block %s outside state of %d bytes", layout.ErrInvalidOperation, b, len(buf))
	}
	return nil
}

// readBits reads size bits starting at the block's first bit, least
// significant bit first.
func readBits(buf []byte, b layout.StateBlock) uint64 {
	byteIdx, bit := bitPosition(b)
	var v uint64
	for i := uint32(0); i < b.SizeInBits && i < 64; i++ {
		pos := uint(bit) + uint(i)
		if buf[byteIdx+int(pos/8)]&(1<<(pos%8)) != 0 {
			v |= 1 << i
		}
	}
	return v
}

func writeBits(buf []byte, b layout.StateBlock, v uint64) {
	byteIdx, bit := bitPosition(b)
	for i := uint32(0); i < b.SizeInBits && i < 64; i++ {
		pos := uint(bit) + uint(i)
		mask := byte(1 << (pos % 8))
		if v&(1<<i) != 0 {
			buf[byteIdx+int(pos/8)] |= mask
		} else {
			buf[byteIdx+int(pos/8)] &^= mask
		}
	}
}

// readRawInt reads the block as an integer.
func readRawInt(buf []byte, b layout.StateBlock) (int64, error) {
	if err := checkBounds(buf, b); err != nil {
		return 0, err
	}
	off := int(b.ByteOffset)
	switch b.Format {
	case layout.FormatBit:
		return int64(readBits(buf, b)), nil
	case layout.FormatSByte:
		return int64(int8(buf[off])), nil
	case layout.FormatByte:
		return int64(buf[off]), nil
	case layout.FormatShort:
		return int64(int16(binary.LittleEndian.Uint16(buf[off:]))), nil
	case layout.FormatUShort:
		return int64(binary.LittleEndian.Uint16(buf[off:])), nil
	case layout.FormatInt:
		return int64(int32(binary.LittleEndian.Uint32(buf[off:]))), nil
	case layout.FormatUInt:
		return int64(binary.LittleEndian.Uint32(buf[off:])), nil
	case layout.FormatLong:
		return int64(binary.LittleEndian.Uint64(buf[off:])), nil
	case layout.FormatFloat, layout.FormatDouble:
		f, err := readRawFloat(buf, b)
		return int64(f), err
	default:
		return int64(readBits(buf, b)), nil
	}
}

// readRawFloat reads the block as a float. Byte and short formats are
// normalized to [0,1] or [-1,1]; wider integers read as their value.
func readRawFloat(buf []byte, b layout.StateBlock) (float64, error) {
	if err := checkBounds(buf, b); err != nil {
		return 0, err
	}
	off := int(b.ByteOffset)
	switch b.Format {
	case layout.FormatFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))), nil
	case layout.FormatDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:])), nil
	case layout.FormatByte:
		return float64(buf[off]) / math.MaxUint8, nil
	case layout.FormatSByte:
		return math.Max(float64(int8(buf[off]))/math.MaxInt8, -1), nil
	case layout.FormatShort:
		return math.Max(float64(int16(binary.LittleEndian.Uint16(buf[off:])))/math.MaxInt16, -1), nil
	case layout.FormatUShort:
		return float64(binary.LittleEndian.Uint16(buf[off:])) / math.MaxUint16, nil
	default:
		v, err := readRawInt(buf, b)
		return float64(v), err
	}
}

// writeRawFloat encodes v into the block, the inverse of readRawFloat.
func writeRawFloat(buf []byte, b layout.StateBlock, v float64) error {
	if err := checkBounds(buf, b); err != nil {
		return err
	}
	off := int(b.ByteOffset)
	switch b.Format {
	case layout.FormatFloat:
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
	case layout.FormatDouble:
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
	case layout.FormatByte:
		buf[off] = byte(math.Round(clampTo(v, 0, 1) * math.MaxUint8))
	case layout.FormatSByte:
		buf[off] = byte(int8(math.Round(clampTo(v, -1, 1) * math.MaxInt8)))
	case layout.FormatShort:
		binary.LittleEndian.PutUint16(buf[off:], uint16(int16(math.Round(clampTo(v, -1, 1)*math.MaxInt16))))
	case layout.FormatUShort:
		binary.LittleEndian.PutUint16(buf[off:], uint16(math.Round(clampTo(v, 0, 1)*math.MaxUint16)))
	case layout.FormatInt:
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(v)))
	case layout.FormatUInt:
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	case layout.FormatLong:
		binary.LittleEndian.PutUint64(buf[off:], uint64(int64(v)))
	default:
		if v < 0 {
			return fmt.Errorf("%w: cannot store %g in %s", layout.ErrInvalidOperation, v, b)
		}
		writeBits(buf, b, uint64(math.Round(v)))
	}
	return nil
}

func clampTo(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
