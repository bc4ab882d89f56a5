// Package language normalizes user-supplied language codes.
//
// Users may type "en", "eng", "english" or "fre"; the subtitle catalog only
// understands its 3-letter sublanguageid form. All conversions live here so
// config loading, the CLI, and the catalog client agree on one spelling.
package language
