// Package services defines shared utilities consumed by the catalog client,
// the encoding pipeline, and the subtitle orchestrator.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and the language
//     being fetched for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (network vs. undecodable content) with errors.Is.
//
// Use these helpers when wiring new components so failure handling and
// observability stay uniform across the pipeline.
package services
