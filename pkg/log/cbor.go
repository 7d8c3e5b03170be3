package log

import (
	"github.com/fxamacker/cbor/v2"
)

// A trace file is a plain sequence of CBOR events. Maps are written in
// canonical key order, so equal events encode to equal bytes.
var (
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic("log: trace encoding: " + err.Error())
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic("log: trace decoding: " + err.Error())
	}
	return m
}

// EncodeEvent returns the trace encoding of event.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent parses one encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
