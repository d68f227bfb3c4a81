// Package viewer assembles the neuroglancer state descriptor for a relocated
// dataset, one additive image layer per fused channel store.
package viewer
