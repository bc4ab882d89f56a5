// Package cue models timed subtitle entries and reads and writes them in the
// SRT block grammar.
package cue
