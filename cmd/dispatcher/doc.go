// Command dispatcher runs the final hand-off stages of the SmartSPIM
// pipeline: relocating stage outputs into their durable dataset layout,
// compiling provenance, publishing a neuroglancer state, and fanning the
// processing specification out into per-channel tasks.
package main
