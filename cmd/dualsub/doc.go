// Package main hosts the dualsub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the shared
// request scheduler, download cache and catalog client, and hands them to
// subcommands: merge fetches and aligns two languages from the catalog,
// align does the same for local files, search lists ranked candidates, and
// cache, config and status cover maintenance.
//
// Subtitle output goes to stdout (or -o); logs go to stderr so the two can
// be piped independently.
package main
