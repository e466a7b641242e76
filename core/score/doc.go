// Package score defines the Score Tree, the canonical hierarchical document
// model every translator produces and every visitor consumes.
//
// A tree is built exactly once per conversion by a single translator pass,
// validated, and then treated as immutable: visitors may traverse one tree
// concurrently with no synchronization. Nodes are tagged variants over a
// fixed set of kinds; a parent exclusively owns its children, and elements
// that span other elements (ties, slurs) point at each other through
// reference labels rather than pointers, keeping the tree acyclic.
package score
