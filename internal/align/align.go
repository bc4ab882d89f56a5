package align

import (
	"log/slog"
	"time"

	"dualsub/internal/cue"
	"dualsub/internal/logging"
)

// DefaultThreshold is how far apart two cue starts may be and still match
// when their intervals do not overlap.
const DefaultThreshold = 500 * time.Millisecond

// Aligner pairs each main-track cue with the nearest translation cue.
type Aligner struct {
	threshold int64
	logger    *slog.Logger
}

// New constructs an Aligner. A negative threshold is treated as zero.
func New(threshold time.Duration, logger *slog.Logger) *Aligner {
	if threshold < 0 {
		threshold = 0
	}
	return &Aligner{
		threshold: threshold.Milliseconds(),
		logger:    logging.NewComponentLogger(logger, "align"),
	}
}

// Merge returns one cue per main cue, in order, carrying the main timing and
// the text of the best-matching translation cue (or "" when none matches).
//
// Matching is greedy: a translation cue matches when it overlaps the main
// interval [start, end) or starts within the threshold of the main start, and
// the match with the smallest start difference wins, first seen on ties. The
// scan for each main cue begins at a lower bound that only moves forward past
// translation cues ending more than twice the threshold before the current
// main start, and it stops once translation starts pass main end plus the
// threshold. Main cues without usable timing are kept with empty text.
func (a *Aligner) Merge(main, trans cue.Sequence) cue.Sequence {
	thr := a.threshold
	out := make(cue.Sequence, 0, len(main))
	transIndex := 0
	matched, untimed := 0, 0

	for _, m := range main {
		merged := cue.Cue{StartMS: m.StartMS, EndMS: m.EndMS}
		if !m.HasTiming() {
			untimed++
			out = append(out, merged)
			continue
		}

		best := -1
		var bestDiff int64
		for j := transIndex; j < len(trans); j++ {
			t := trans[j]
			if !t.HasTiming() {
				if j == transIndex {
					transIndex++
				}
				continue
			}
			if t.StartMS > m.EndMS+thr {
				break
			}
			if j == transIndex && t.EndMS < m.StartMS-2*thr {
				transIndex++
				continue
			}
			diff := abs(m.StartMS - t.StartMS)
			if !overlaps(m, t) && diff >= thr {
				continue
			}
			if best < 0 || diff < bestDiff {
				best, bestDiff = j, diff
			}
		}

		if best >= 0 {
			merged.Text = cue.SingleLine(trans[best].Text)
			matched++
		}
		out = append(out, merged)
	}

	a.logger.Debug("cue alignment complete",
		logging.String(logging.FieldEventType, "align_complete"),
		logging.Int("main_cues", len(main)),
		logging.Int("translation_cues", len(trans)),
		logging.Int("matched", matched),
		logging.Int("untimed_main", untimed),
	)
	return out
}

// Merge aligns with a throwaway Aligner.
func Merge(main, trans cue.Sequence, threshold time.Duration) cue.Sequence {
	return New(threshold, nil).Merge(main, trans)
}

// overlaps reports whether t starts inside, ends inside, sits inside, or
// covers the half-open main interval.
func overlaps(m, t cue.Cue) bool {
	startInside := t.StartMS >= m.StartMS && t.StartMS < m.EndMS
	endInside := t.EndMS >= m.StartMS && t.EndMS < m.EndMS
	contained := t.StartMS >= m.StartMS && t.EndMS <= m.EndMS
	covers := t.StartMS <= m.StartMS && t.EndMS >= m.EndMS
	return startInside || endInside || contained || covers
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Coverage returns the share of cues in merged that received translation text.
func Coverage(merged cue.Sequence) float64 {
	if len(merged) == 0 {
		return 0
	}
	filled := 0
	for _, c := range merged {
		if c.Text != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(merged))
}
