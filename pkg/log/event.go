package log

import (
	"time"
)

// Event represents a trace event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Layout is the layout the event concerns.
	Layout string `cbor:"4,keyasint,omitempty"`

	// DeviceID identifies the device (UUID) for build and query events.
	DeviceID string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Change *ChangeEvent    `cbor:"6,keyasint,omitempty"` // Registry mutations
	Build  *BuildEvent     `cbor:"7,keyasint,omitempty"` // Device construction
	Query  *QueryEvent     `cbor:"8,keyasint,omitempty"` // Path queries
	Error  *ErrorEventData `cbor:"9,keyasint,omitempty"` // Errors at any layer
}

// Layer indicates which compiler stage captured the event.
type Layer uint8

const (
	// LayerRegistry is the layout store.
	LayerRegistry Layer = 0
	// LayerMerge is inheritance resolution.
	LayerMerge Layer = 1
	// LayerLayout is state layout assignment.
	LayerLayout Layer = 2
	// LayerBuild is control tree construction.
	LayerBuild Layer = 3
	// LayerQuery is path matching.
	LayerQuery Layer = 4
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerRegistry:
		return "REGISTRY"
	case LayerMerge:
		return "MERGE"
	case LayerLayout:
		return "LAYOUT"
	case LayerBuild:
		return "BUILD"
	case LayerQuery:
		return "QUERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryChange indicates a registry change.
	CategoryChange Category = 0
	// CategoryBuild indicates a device build.
	CategoryBuild Category = 1
	// CategoryQuery indicates a query evaluation.
	CategoryQuery Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryChange:
		return "CHANGE"
	case CategoryBuild:
		return "BUILD"
	case CategoryQuery:
		return "QUERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ChangeEvent captures a registry mutation.
type ChangeEvent struct {
	// Kind is "ADDED", "REPLACED" or "REMOVED".
	Kind string `cbor:"1,keyasint"`

	// Sequence is the registration sequence number after the change.
	Sequence uint64 `cbor:"2,keyasint,omitempty"`

	// RolledBack is set when a listener rejected the change.
	RolledBack bool `cbor:"3,keyasint,omitempty"`
}

// BuildEvent captures the construction of a device tree.
type BuildEvent struct {
	// Device is the device name.
	Device string `cbor:"1,keyasint"`

	// Controls is the number of controls built, the device included.
	Controls int `cbor:"2,keyasint"`

	// StateSize is the device state size in bytes.
	StateSize uint32 `cbor:"3,keyasint"`

	// Rebuild is set when an existing device was rebuilt after a change.
	Rebuild bool `cbor:"4,keyasint,omitempty"`
}

// QueryEvent captures a path query.
type QueryEvent struct {
	Path    string `cbor:"1,keyasint"`
	Matches int    `cbor:"2,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// NewErrorEvent builds an error event for layout at layer.
func NewErrorEvent(layer Layer, layout, context string, err error) Event {
	return Event{
		Timestamp: time.Now(),
		Layer:     layer,
		Category:  CategoryError,
		Layout:    layout,
		Error: &ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	}
}
