// Package history implements the undo/redo buffer of full-state snapshots.
//
// The Recorder keeps a linear buffer and a cursor:
//
//	entries:  [s0] [s1] [s2] [s3]
//	                      ▲
//	                    index        Undo → s1, Redo → s3
//
// A push captures the current state through a callback and appends it after
// the cursor, discarding the redo branch. The buffer is capped by dropping
// the oldest entries.
//
// Pushes take a FlushPolicy. FlushDebounced restarts a delay on every call
// so a burst of edits (drag, typing) becomes one entry captured at the end
// of the burst. FlushImmediate cancels any pending debounce and captures at
// once; structural edits use it so each gets its own entry.
package history
