// Package statelayout expands an effective layout into a tree of control
// nodes and binds every node to a block of the device state buffer.
//
// Expansion instantiates the control layout named by each item and
// applies path items onto the nested controls they address. Placement
// then runs bottom-up: a node's children are packed relative to the node,
// either at their explicit offset and bit or automatically in declaration
// order, and a node without a fixed size takes the extent of its
// children. Absolute blocks are the sum of the relative offsets along the
// path from the device. Finally, every control declared with useStateFrom
// receives an exact copy of its target's absolute block.
package statelayout
