package loganalysis

import (
	"regexp"
	"strings"
)

var (
	adjustMoveRe     = regexp.MustCompile(`Adjusting\b.*\bmove: (\d+)`)
	alternateRetryRe = regexp.MustCompile(`Focus not reached after (\d+) moves\. Trying alternate commands`)
)

const (
	autofocusDoneToken = "[AUTOFOCUS][OFF] Done"
	stillNotToken      = "Still not"
)

// customFocusState is the per-well move buffer of the custom-focus analyzer.
type customFocusState struct {
	current   string
	buffer    []float64
	finalized bool // a result was already recorded since the last well move
}

func (s *customFocusState) take() float64 {
	best := 0.0
	for _, v := range s.buffer {
		if v > best {
			best = v
		}
	}
	s.buffer = s.buffer[:0]
	return best
}

func analyzeCustomFocus(lines []string, from int, gate phaseGate, a *Analysis) {
	tracker := newWellTracker()
	st := &customFocusState{}
	var moves []float64

	for i := from; i < len(lines); i++ {
		line := lines[i]
		if m := goingToWellRe.FindStringSubmatch(line); m != nil {
			st.current = m[1]
			st.buffer = st.buffer[:0]
			st.finalized = false
			continue
		}
		excluded := gate.excluded(i)

		switch {
		case alternateRetryRe.MatchString(line):
			// Retries count even inside an alignment phase.
			st.buffer = st.buffer[:0]
			a.AlternateRetryCount++
			tracker.get(st.current).AlternateRetries++
		case strings.Contains(line, autofocusDoneToken):
			if excluded {
				st.take()
				a.ExcludedMeasurements++
				continue
			}
			if st.finalized {
				st.take()
				continue
			}
			v := st.take()
			w := tracker.get(st.current)
			w.Values = append(w.Values, v)
			moves = append(moves, v)
			a.DoneMeasurements++
			st.finalized = true
		case strings.Contains(line, stillNotToken):
			if excluded {
				st.take()
				a.ExcludedMeasurements++
				continue
			}
			if st.finalized {
				st.take()
				continue
			}
			st.take()
			tracker.get(st.current).Timeouts++
			a.TimeoutMeasurements++
			st.finalized = true
		default:
			if m := adjustMoveRe.FindStringSubmatch(line); m != nil && !excluded {
				st.buffer = append(st.buffer, parseCount(m[1]))
			}
		}
	}

	a.finish(tracker, moves)
}
