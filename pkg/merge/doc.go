// Package merge resolves a named layout into its effective description.
//
// Resolution is recursive over the "extends" chain. For every level the
// base is resolved and cloned, inherited controls whose variant does not
// apply are dropped, and the layout's own items are applied in
// declaration order: an item naming an existing control (by full path)
// overwrites only the fields it specifies, any other item is appended.
// Array items are expanded into indexed siblings at the end of the level
// that declares them.
//
// Merging never reports duplicate controls. Duplicates are detected when
// the tree is built.
package merge
