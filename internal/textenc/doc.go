// Package textenc converts downloaded subtitle bytes into UTF-8 text.
//
// Payloads may arrive gzip-compressed and in any legacy codepage. Normalize
// inflates them, asks chardet for the most likely charset, decodes through
// golang.org/x/text, and strips byte-order marks. Invalid UTF-8 gets exactly
// one latin1 retry before the input is rejected.
package textenc
