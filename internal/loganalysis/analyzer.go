package loganalysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/user/plate_validator_go/internal/apperr"
)

const timestampLayout = "02/01/2006 15:04:05"

var (
	timestampRe   = regexp.MustCompile(`\[(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})\]`)
	goingToWellRe = regexp.MustCompile(`Going to well "([^"]*)"`)
	alignEndRe    = regexp.MustCompile(`Reference wells\b.*\bre-aligned`)
)

const (
	acquisitionStartToken = "Starting"
	acquisitionToken      = "acquisition"
	stoppingToken         = "Stopping"
	driftFixToken         = "DRIFT FIX:"
	alignStartToken       = "Starting auto-position of wells:"
	unknownWell           = "(unknown)"
)

// DetectStrategy returns prior when the log mentions loops anywhere.
func DetectStrategy(lines []string) Strategy {
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "loop") {
			return StrategyPrior
		}
	}
	return StrategyCustomFocus
}

// FindLastAcquisition returns the index of the last line announcing an
// acquisition start, or -1.
func FindLastAcquisition(lines []string) int {
	last := -1
	for i, l := range lines {
		if strings.Contains(l, acquisitionStartToken) && strings.Contains(l, acquisitionToken) {
			last = i
		}
	}
	return last
}

// ParseTimestamp extracts the bracketed [dd/mm/YYYY HH:MM:SS] timestamp of a line.
func ParseTimestamp(line string) (time.Time, error) {
	m := timestampRe.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, apperr.Newf(apperr.KindParseError, component, "no timestamp in %q", line)
	}
	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return time.Time{}, apperr.Wrap(err, apperr.KindParseError, component, "invalid timestamp")
	}
	return ts, nil
}

// FindAlignmentPhases locates alignment phases among lines[from:]. A phase
// opened without a closing line is returned in unterminated.
func FindAlignmentPhases(lines []string, from int) (phases []Phase, unterminated []int) {
	open := -1
	for i := from; i < len(lines); i++ {
		switch {
		case open < 0 && strings.Contains(lines[i], alignStartToken):
			open = i
		case open >= 0 && alignEndRe.MatchString(lines[i]):
			phases = append(phases, Phase{Start: open, End: i})
			open = -1
		}
	}
	if open >= 0 {
		unterminated = append(unterminated, open)
	}
	return phases, unterminated
}

type phaseGate []Phase

func (g phaseGate) excluded(i int) bool {
	for _, p := range g {
		if p.Contains(i) {
			return true
		}
	}
	return false
}

// wellTracker keeps per-well data in first-seen order.
type wellTracker struct {
	order  []string
	byName map[string]*WellData
}

func newWellTracker() *wellTracker {
	return &wellTracker{byName: make(map[string]*WellData)}
}

func (t *wellTracker) get(name string) *WellData {
	if name == "" {
		name = unknownWell
	}
	if w, ok := t.byName[name]; ok {
		return w
	}
	w := &WellData{Well: name}
	t.byName[name] = w
	t.order = append(t.order, name)
	return w
}

func (t *wellTracker) wells() []WellData {
	out := make([]WellData, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.byName[name])
	}
	return out
}

// Analyze characterizes the last acquisition of a log. Structural problems
// are returned as errors next to whatever could still be measured.
func Analyze(lines []string) (*Analysis, []*apperr.Error, []*apperr.Error) {
	a := &Analysis{
		Strategy:            DetectStrategy(lines),
		LastAcquisitionLine: FindLastAcquisition(lines),
		MeanMetric:          math.NaN(),
	}
	var errs, warnings []*apperr.Error

	if a.LastAcquisitionLine < 0 {
		errs = append(errs, apperr.New(apperr.KindLogStructureError, component, "no acquisition start marker"))
		return a, errs, warnings
	}

	if err := a.measureDuration(lines); err != nil {
		errs = append(errs, err)
	}

	from := a.LastAcquisitionLine + 1
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], driftFixToken) {
			a.DriftFixCount++
		}
	}

	phases, unterminated := FindAlignmentPhases(lines, from)
	a.AlignmentPhases = phases
	for _, start := range unterminated {
		warnings = append(warnings, apperr.Newf(apperr.KindLogStructureError, component,
			"alignment phase opened at line %d is never closed", start+1))
	}

	switch a.Strategy {
	case StrategyPrior:
		analyzePrior(lines, from, phaseGate(phases), a)
	default:
		analyzeCustomFocus(lines, from, phaseGate(phases), a)
	}
	return a, errs, warnings
}

func (a *Analysis) measureDuration(lines []string) *apperr.Error {
	stop := -1
	for i := a.LastAcquisitionLine; i < len(lines); i++ {
		if strings.Contains(lines[i], stoppingToken) {
			stop = i
		}
	}
	if stop < 0 {
		return apperr.New(apperr.KindLogStructureError, component, "no end marker after the last acquisition")
	}
	start, err := ParseTimestamp(lines[a.LastAcquisitionLine])
	if err != nil {
		return apperr.Wrap(err, apperr.KindParseError, component, "acquisition start")
	}
	end, err := ParseTimestamp(lines[stop])
	if err != nil {
		return apperr.Wrap(err, apperr.KindParseError, component, "acquisition end")
	}
	d := end.Sub(start)
	if d < 0 {
		return apperr.Newf(apperr.KindLogStructureError, component, "acquisition ends before it starts (%s)", d)
	}
	a.DurationSeconds = d.Seconds()
	a.DurationMinutes = d.Minutes()
	return nil
}

func (a *Analysis) finish(tracker *wellTracker, doneValues []float64) {
	a.PerWell = tracker.wells()
	for _, w := range a.PerWell {
		if w.Measurements() > 0 {
			a.TotalWells++
		}
		if w.AlternateRetries > a.MaxRetryCount {
			a.MaxRetryCount = w.AlternateRetries
		}
	}
	a.TotalMeasurements = a.DoneMeasurements + a.TimeoutMeasurements
	if len(doneValues) > 0 {
		if mean, err := stats.Mean(doneValues); err == nil {
			a.MeanMetric = mean
		}
	}
}

func parseCount(s string) float64 {
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}
