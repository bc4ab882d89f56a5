package cue

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"dualsub/internal/logging"
	"dualsub/internal/services"
)

var (
	timingLine = regexp.MustCompile(`^\s*(\S+)\s*-->\s*(\S+)`)
	timestamp  = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)
)

// Parse splits SRT text into cues. Blocks are separated by blank lines; each
// block is an index line, a timing line and one or more text lines. A block
// whose timing line does not match HH:MM:SS,mmm --> HH:MM:SS,mmm is kept with
// zero start and end so callers can treat it as unmatched.
func Parse(text string, logger *slog.Logger) Sequence {
	if logger == nil {
		logger = logging.NewNop()
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		seq       Sequence
		block     []string
		malformed int
	)
	flush := func() {
		if len(block) == 0 {
			return
		}
		c, ok, err := parseBlock(block)
		block = block[:0]
		if !ok {
			return
		}
		if err != nil {
			malformed++
			logger.Debug("cue timing malformed; keeping entry with zero timing",
				logging.String(logging.FieldEventType, "cue_timing_malformed"),
				logging.Int("cue_position", len(seq)+1),
				logging.Error(err),
			)
		}
		seq = append(seq, c)
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, strings.TrimRight(line, " \t"))
	}
	flush()

	if malformed > 0 {
		logging.WarnWithContext(logger, "subtitle contains malformed timing lines", "cue_parse_malformed",
			logging.Int("malformed", malformed),
			logging.Int("cues", len(seq)),
			logging.String(logging.FieldErrorHint, "timestamps must look like 00:00:01,500"),
			logging.String(logging.FieldImpact, "affected cues stay in the output without a translation"),
		)
	}
	return seq
}

// parseBlock returns ok=false for blocks with nothing to keep. A non-nil
// error means the cue was kept with zero timing.
func parseBlock(lines []string) (Cue, bool, error) {
	timingIdx := 1
	if strings.Contains(lines[0], "-->") {
		timingIdx = 0
	}
	if timingIdx >= len(lines) {
		return Cue{}, false, nil
	}
	body := strings.Join(lines[timingIdx+1:], "\n")
	start, end, err := ParseTiming(lines[timingIdx])
	if err != nil {
		return Cue{Text: body}, true, err
	}
	return Cue{StartMS: start, EndMS: end, Text: body}, true, nil
}

// ParseTiming parses an "HH:MM:SS,mmm --> HH:MM:SS,mmm" line. Trailing cue
// settings after the end timestamp are ignored.
func ParseTiming(line string) (int64, int64, error) {
	m := timingLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, services.Wrap(services.ErrMalformedEntry, "cue", "parse timing", fmt.Sprintf("no arrow in %q", line), nil)
	}
	start, err := ParseTimestamp(m[1])
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(m[2])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp converts HH:MM:SS,mmm to milliseconds. Any other shape,
// including a period before the milliseconds, is rejected.
func ParseTimestamp(value string) (int64, error) {
	m := timestamp.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, services.Wrap(services.ErrMalformedEntry, "cue", "parse timestamp", fmt.Sprintf("invalid timestamp %q", value), nil)
	}
	hours, _ := strconv.ParseInt(m[1], 10, 64)
	minutes, _ := strconv.ParseInt(m[2], 10, 64)
	seconds, _ := strconv.ParseInt(m[3], 10, 64)
	millis, _ := strconv.ParseInt(m[4], 10, 64)
	return (hours*3600+minutes*60+seconds)*1000 + millis, nil
}
