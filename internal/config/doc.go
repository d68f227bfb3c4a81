// Package config loads, normalizes, and validates dispatcher configuration.
//
// It supplies repository defaults matching the capsule staging layout,
// expands user paths (including tilde shortcuts), and reads TOML files. The
// Config type centralizes every knob the run modes need so downstream
// components consume only typed, validated fields.
package config
