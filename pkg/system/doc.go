// Package system manages the live devices built from a layout registry.
//
// A System subscribes to its registry. When a layout a device was built
// from is replaced, the device is rebuilt in place: its identity, name,
// descriptor and attached state buffer survive, and existing Control
// handles keep observing the previous tree. When a device's own layout is
// removed the device is removed with it.
//
// Rebuilds are all-or-nothing. Every affected device is rebuilt before any
// is swapped; if one rebuild fails the System rejects the change and the
// registry rolls it back, so a broken layout never reaches a live device.
//
// Lock order is registry first, then system. Callbacks registered with
// OnEvent run synchronously and must not mutate the registry.
package system
