package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// encMode is configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is lenient for forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// Encode serializes s.
func Encode(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return encMode.Marshal(s)
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &s, nil
}

// Write encodes s to w.
func Write(w io.Writer, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read decodes a snapshot from r.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// WriteFile stores s at path, creating parent directories.
func WriteFile(path string, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a snapshot stored with WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
