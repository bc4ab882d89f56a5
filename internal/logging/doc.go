// Package logging assembles structured slog loggers and formatting helpers used
// across dualsub components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so catalog and merge code can tag log
// lines with correlation IDs and the language being fetched. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
