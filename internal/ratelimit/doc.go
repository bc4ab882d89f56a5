// Package ratelimit provides the fixed-window request scheduler shared by
// every catalog search in the process.
//
// A Scheduler admits Capacity operations per Window; later callers block in a
// FIFO queue that drains when the window resets. The window ticker starts
// lazily and never keeps the process alive; call Close to stop it.
package ratelimit
