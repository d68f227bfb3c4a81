// Package transfer provides the relocation primitive between the staging
// area and durable storage.
//
// The cloud client shells out to the aws CLI and streams its stdout line by
// line; output is fully drained before the exit status is checked, so
// progress reaches the logs even when the transfer fails. The local client
// performs the same operations with filesystem copies. Both satisfy Client,
// so the relocation rules never care where the durable side lives.
package transfer
