// Package node owns the mesh participant runtime.
//
// Ownership boundary:
// - own channel lifecycle (open at start, destroy at exit)
//
// - notification drain into the neighbour registry
//
// - one-shot bootstrap announcement to a single peer
//
// - termination cascade to every neighbour except the origin
//
// - console input validation
//
// Lifecycle order:
// - start -> connect (optional) -> run -> cascade -> exit
//
// All registry mutation happens on the goroutine running Run. Wake-ups,
// console lines and operator interrupts reach it as channel events.
//
// Connect is one-directional: announcing to a peer makes this node the
// peer's neighbour, never the other way round. The peer learns nothing it
// did not announce itself.
package node
