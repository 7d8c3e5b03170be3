// Package control instantiates live devices from placed layouts.
//
// All controls of a device live in one arena table owned by the device.
// Parent and child relations are table indices, and a Control is a
// lightweight handle (tree, index) that stays valid for the tree it was
// taken from. Rebuilding a device swaps in a new tree; handles taken
// before the swap keep observing the old one.
//
// Control behavior is selected by Kind, a closed enumeration. Layout
// type names map to kinds through a KindRegistry, and processor names map
// to processor factories through a ProcessorRegistry.
//
// Values are read from the state buffer attached to the device. Reading
// before a buffer is attached fails with layout.ErrInvalidOperation.
package control
