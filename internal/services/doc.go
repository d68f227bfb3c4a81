// Package services defines shared error semantics for the dispatcher
// components.
//
// Key responsibilities:
//   - Structured error markers for the failure taxonomy (configuration,
//     missing inputs, discovery, transfer, provenance, channel tokens).
//   - The Wrap helper that tags failures with a marker plus component and
//     operation context so the CLI can report them uniformly.
//
// Use these helpers when wiring new pipeline logic so failure behaviour stays
// uniform across the run modes.
package services
