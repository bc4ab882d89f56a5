package cue

import (
	"fmt"
	"strings"
)

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm. Negative values clamp to zero.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// FormatSRT renders seq as SRT with 1-based indices.
func FormatSRT(seq Sequence) string {
	var b strings.Builder
	for i, c := range seq {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n", i+1, FormatTimestamp(c.StartMS), FormatTimestamp(c.EndMS))
		if c.Text != "" {
			b.WriteString(c.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
