// Package snapshot captures a built device as a self-contained record.
//
// A Snapshot lists every control with its path, layout, kind and state
// block, so tools can consume a device layout without the compiler. It is
// encoded as CBOR with integer keys and canonical ordering; the same
// device always encodes to the same bytes.
//
// The fingerprint is a BLAKE2b-256 digest over the canonical text of every
// layout the device was built from. Two snapshots with equal fingerprints
// were compiled from identical layout sources.
package snapshot
