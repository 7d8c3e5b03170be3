package layout

import "errors"

// Layout errors.
var (
	ErrUnknownLayout        = errors.New("unknown layout")
	ErrUnknownParentControl = errors.New("unknown parent control")
	ErrDuplicateControl     = errors.New("duplicate control")
	ErrLayoutNotSet         = errors.New("layout has not been set")
	ErrUnknownControlType   = errors.New("unknown control type")
	ErrUnknownProcessor     = errors.New("unknown processor")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrInvalidLayout        = errors.New("invalid layout")
	ErrLayoutConflict       = errors.New("state layout conflict")
)
