// Package catalog searches the legacy OpenSubtitles REST catalog, ranks the
// results, and fetches and decodes chosen subtitles into cues.
//
// Searches share a ratelimit.Scheduler so every caller in the process stays
// inside the anonymous quota. Search failures degrade to "no results" through
// SearchAndRank; Download and FetchAndDecode return marked errors from
// internal/services so callers can move on to the next candidate.
package catalog
