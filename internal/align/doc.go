// Package align merges a translation subtitle track onto the timing of a main
// track with a single greedy forward pass.
package align
