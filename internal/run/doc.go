// Package run sequences one dispatch or clean invocation: staging-area lock,
// input validation, relocation, visualization, and specification fan-out.
package run
