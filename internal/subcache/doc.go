// Package subcache keeps raw subtitle downloads in a local SQLite database so
// repeat merges of the same title skip the catalog download entirely.
//
// Payloads are stored before charset normalization. Maintenance (Prune and
// Clear) takes an exclusive file lock next to the database.
package subcache
