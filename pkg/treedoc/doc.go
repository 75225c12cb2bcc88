// Package treedoc exposes an incrementally-reparsed syntax tree through
// versioned node handles. A Document owns the mutable tree and a monotonic
// version counter; every handle minted by navigation captures the counter and
// re-checks it on each access, so edits can rebuild the tree in place without
// any handle ever returning data from a tree that no longer exists. Stale
// handles degrade to absent results rather than errors.
//
// Offsets on the host-facing surface are external character offsets; the
// engine underneath works in bytes. The two are related by a fixed unit width
// (default 2, for hosts with double-byte text units) applied at every
// boundary crossing.
package treedoc
