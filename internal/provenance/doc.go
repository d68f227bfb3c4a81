// Package provenance compiles the per-stage processing records scattered
// across capsule outputs into one canonical, ordered processing document.
//
// Fragments are read-only inputs; their individual process entries are
// carried into the merged document untouched, in fragment-discovery order. A
// fragment that fails to parse or validate aborts the whole merge; callers
// that can tolerate partial provenance handle that at the call site.
package provenance
