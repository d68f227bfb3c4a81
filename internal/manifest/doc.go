// Package manifest models the processing specification and dataset
// description documents exchanged between pipeline capsules.
//
// The upstream documents are loose JSON; this package validates them once at
// the boundary into typed structs so downstream components never touch
// string-keyed maps. It also generates the derived dataset metadata that
// dispatch mode publishes alongside relocated artifacts.
package manifest
