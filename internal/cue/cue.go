package cue

import "strings"

// Cue is one timed subtitle entry. Times are milliseconds from the start of
// the video. Text may span several lines.
type Cue struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// HasTiming reports whether the cue carries a usable interval. Cues parsed
// from a malformed timing line have both ends zeroed and report false.
func (c Cue) HasTiming() bool {
	return c.EndMS > c.StartMS && c.StartMS >= 0
}

// Sequence is an ordered list of cues, normally by non-decreasing start time.
type Sequence []Cue

// Timed returns the number of cues with usable timing.
func (s Sequence) Timed() int {
	n := 0
	for _, c := range s {
		if c.HasTiming() {
			n++
		}
	}
	return n
}

// SingleLine collapses every run of line breaks in text into one space and
// trims the surrounding whitespace of each line.
func SingleLine(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return strings.TrimSpace(text)
	}
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	parts := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
