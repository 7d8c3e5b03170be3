// Package catalog persists layout documents in a SQLite database.
//
// Each layout is stored as its canonical text together with a sequence
// number. LoadInto registers stored layouts in sequence order, which keeps
// last-registered-wins device matching stable across restarts. Listener
// mirrors registry changes into the catalog as they happen.
package catalog
