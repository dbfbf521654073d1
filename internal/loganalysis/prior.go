package loganalysis

import (
	"regexp"
)

var (
	doneLoopsRe    = regexp.MustCompile(`Done after (\d+) loop`)
	timeoutLoopsRe = regexp.MustCompile(`Time out after (\d+) loop`)
)

func analyzePrior(lines []string, from int, gate phaseGate, a *Analysis) {
	tracker := newWellTracker()
	current := ""
	var loops []float64

	for i := from; i < len(lines); i++ {
		line := lines[i]
		if m := goingToWellRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if m := doneLoopsRe.FindStringSubmatch(line); m != nil {
			if gate.excluded(i) {
				a.ExcludedMeasurements++
				continue
			}
			n := parseCount(m[1])
			loops = append(loops, n)
			w := tracker.get(current)
			w.Values = append(w.Values, n)
			a.DoneMeasurements++
			continue
		}
		if timeoutLoopsRe.MatchString(line) {
			if gate.excluded(i) {
				a.ExcludedMeasurements++
				continue
			}
			tracker.get(current).Timeouts++
			a.TimeoutMeasurements++
		}
	}

	a.finish(tracker, loops)
	a.CyclesDetected = CyclesDetected(a.PerWell)
}

// CyclesDetected returns the most frequent per-well measurement count over
// wells with at least one measurement. Ties go to the larger count.
func CyclesDetected(wells []WellData) int {
	freq := make(map[int]int)
	for _, w := range wells {
		if n := w.Measurements(); n > 0 {
			freq[n]++
		}
	}
	best, bestFreq := 0, 0
	for count, f := range freq {
		if f > bestFreq || (f == bestFreq && count > best) {
			best, bestFreq = count, f
		}
	}
	return best
}
