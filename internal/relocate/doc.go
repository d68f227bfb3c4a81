// Package relocate discovers the staged outputs of upstream pipeline stages
// and moves them into the durable dataset layout, compiling provenance along
// the way.
package relocate
