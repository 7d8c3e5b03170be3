// Package layout defines the declarative schema for input devices.
//
// # Layouts
//
// A layout is a named, inheritable description of either a device or a
// reusable control shape. Layouts form a hierarchy through Extends:
//
//	Gamepad
//	├── buttonSouth   (Button, bit 6)
//	├── leftStick     (Stick, offset 4)
//	│   ├── x         (Axis)
//	│   ├── y         (Axis)
//	│   └── up/down/left/right (Button, state taken from x/y)
//	└── dpad          (Dpad, bits 0-3)
//
// Control items name the controls a layout adds. A bare name adds a direct
// child; a slash path ("leftStick/x") modifies or extends a control that
// lives deeper in the hierarchy.
//
// # State
//
// Every control is bound to a StateBlock: a byte offset, bit offset and
// size inside the raw state buffer of its device. Offsets authored in a
// control item are relative to the parent control, never absolute.
//
// # Formats
//
// State formats are four-character codes (FourCC). Primitive codes such as
// FLT, BYTE or BIT have a natural size; composite codes such as GPAD only
// identify a device state and derive their size from their children.
package layout
