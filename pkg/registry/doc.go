// Package registry is the process-wide store of layout descriptions.
//
// A Registry maps case-insensitive layout names to immutable
// layout.Description values. Every mutation (Register, Remove) is assigned
// a sequence number and delivered synchronously to subscribed listeners,
// in subscription order, before the call returns. A listener that rejects
// a change rolls it back: the registry entry is restored and listeners
// that already saw the change receive the inverse change.
//
// The registry also resolves hardware descriptors to layout names:
// override hooks are consulted first, then device matchers, where the
// most recently registered matching layout wins.
package registry
