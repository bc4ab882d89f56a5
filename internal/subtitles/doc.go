// Package subtitles produces dual-language subtitle tracks.
//
// Service.Merge looks up a main and a translation track in the catalog
// concurrently, falls back through ranked candidates when a download is
// unusable, and aligns the translation text onto the main timing. Missing
// data is an outcome, not an error: callers receive OutcomeInsufficientData
// with a readable Detail.
package subtitles
