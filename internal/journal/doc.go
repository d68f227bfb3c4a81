// Package journal records every relocation a run performs into a small
// SQLite database for after-the-fact inspection.
//
// The journal is observability data only: a failed run restarts from a clean
// staging area, never from journal state.
package journal
