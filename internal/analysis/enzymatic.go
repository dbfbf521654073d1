package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/parser"
)

const enzymaticComponent = "enzymatic"

// DegradationThresholds are the signal levels, in percent of the maximum
// calibration signal, at which the calibration CV is reported.
var DegradationThresholds = [3]float64{30, 50, 70}

// EnzymaticFixedColumns is the number of columns preceding the per-sample groups
// in an enzymatic table row; each sample then takes EnzymaticSampleColumns.
const (
	EnzymaticFixedColumns  = 15
	EnzymaticSampleColumns = 4
)

// Row labels of the enzymatic table.
const (
	SourceReference  = "reference"
	SourceValidation = "validation"
	SourceDiff       = "diff %"
)

// EnzymaticSample is one calibration sample of a sheet.
type EnzymaticSample struct {
	Label    string  `yaml:"label"`
	Activity float64 `yaml:"activity"`
	Value    float64 `yaml:"value"`
	RSD      float64 `yaml:"rsd"`
}

// EnzymaticMetrics is the metric vector of one sheet on one side.
type EnzymaticMetrics struct {
	Sheet       string            `yaml:"sheet"`
	Zone        int               `yaml:"zone"`
	ActivityMin float64           `yaml:"activity_min"`
	ActivityMax float64           `yaml:"activity_max"`
	NBlanks     int               `yaml:"n_blanks"`
	BlankMean   float64           `yaml:"blank_mean"`
	BlankSD     float64           `yaml:"blank_sd"`
	LOD         float64           `yaml:"lod"`
	LOQ         float64           `yaml:"loq"`
	Sensitivity float64           `yaml:"sensitivity"`
	CV          [3]float64        `yaml:"cv"` // at DegradationThresholds
	Samples     []EnzymaticSample `yaml:"samples"`
}

// EnzymaticPair is the reference and validation metrics of one sheet.
type EnzymaticPair struct {
	Sheet      string           `yaml:"sheet"`
	Reference  EnzymaticMetrics `yaml:"reference"`
	Validation EnzymaticMetrics `yaml:"validation"`
}

// EnzymaticComparison collects the sheets that could be compared.
type EnzymaticComparison struct {
	Pairs []EnzymaticPair `yaml:"pairs"`
}

// ComputeEnzymaticMetrics derives the metric vector of one zone.
func ComputeEnzymaticMetrics(src ZoneSource, zone int, sheet string) (EnzymaticMetrics, error) {
	m := EnzymaticMetrics{Sheet: sheet, Zone: zone + 1}

	points, err := src.Calibration(zone)
	if err != nil {
		return m, err
	}
	if len(points) < 2 {
		return m, apperr.Newf(apperr.KindInsufficientData, enzymaticComponent, "%d calibration point(s)", len(points)).InZone(zone + 1)
	}
	points = sortedByActivity(points)

	acts := make([]float64, len(points))
	for i, p := range points {
		acts[i] = p.Activity
	}
	m.ActivityMin, m.ActivityMax = valueRange(acts)

	blanks, err := src.ValidBlanks(zone)
	if err != nil {
		return m, err
	}
	limits := ComputeDetectionLimits(blanks)
	m.NBlanks = limits.N
	m.BlankMean, m.BlankSD = limits.Mean, limits.SD
	m.LOD, m.LOQ = limits.LOD, limits.LOQ
	m.Sensitivity = activityAtSignal(points, m.LOD)

	for i, t := range DegradationThresholds {
		m.CV[i] = cvAtDegradation(points, t)
	}
	for i, p := range points {
		m.Samples = append(m.Samples, EnzymaticSample{
			Label:    fmt.Sprintf("S%d", i+1),
			Activity: p.Activity,
			Value:    p.Value,
			RSD:      p.Stdev,
		})
	}
	return m, nil
}

func sortedByActivity(points []parser.CalibrationPoint) []parser.CalibrationPoint {
	out := make([]parser.CalibrationPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Activity < out[j].Activity })
	return out
}

func lerp(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// activityAtSignal returns the activity where the calibration signal first
// reaches target, clamped to the calibrated activity range.
func activityAtSignal(points []parser.CalibrationPoint, target float64) float64 {
	if math.IsNaN(target) {
		return math.NaN()
	}
	if target <= points[0].Value {
		return points[0].Activity
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.Value >= target {
			return lerp(prev.Value, prev.Activity, cur.Value, cur.Activity, target)
		}
	}
	return points[len(points)-1].Activity
}

// cvAtDegradation interpolates the calibration RSD at the point where the
// signal reaches threshold percent of its maximum.
func cvAtDegradation(points []parser.CalibrationPoint, threshold float64) float64 {
	maxVal := math.Inf(-1)
	for _, p := range points {
		if !math.IsNaN(p.Value) && p.Value > maxVal {
			maxVal = p.Value
		}
	}
	if math.IsInf(maxVal, -1) {
		return math.NaN()
	}
	target := maxVal * threshold / 100
	if target <= points[0].Value {
		return points[0].Stdev
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.Value >= target {
			return lerp(prev.Value, prev.Stdev, cur.Value, cur.Stdev, target)
		}
	}
	return points[len(points)-1].Stdev
}

// CompareEnzymatic computes both metric vectors for every sheet of the
// reference workbook. A sheet that cannot be compared is reported and skipped.
func CompareEnzymatic(measured, reference ZoneSource) (*EnzymaticComparison, []*apperr.Error) {
	out := &EnzymaticComparison{}
	var errs []*apperr.Error

	measuredIndex := make(map[string]int)
	for i, name := range measured.SheetNames() {
		measuredIndex[name] = i
	}

	for rz, sheet := range reference.SheetNames() {
		mz, ok := measuredIndex[sheet]
		if !ok {
			errs = append(errs, apperr.Newf(apperr.KindMissingFile, enzymaticComponent, "sheet %q missing from validation data", sheet))
			continue
		}
		ref, err := ComputeEnzymaticMetrics(reference, rz, sheet)
		if err != nil {
			errs = append(errs, apperr.Wrap(err, apperr.KindInsufficientData, enzymaticComponent, fmt.Sprintf("reference sheet %q", sheet)))
			continue
		}
		val, err := ComputeEnzymaticMetrics(measured, mz, sheet)
		if err != nil {
			errs = append(errs, apperr.Wrap(err, apperr.KindInsufficientData, enzymaticComponent, fmt.Sprintf("validation sheet %q", sheet)))
			continue
		}
		out.Pairs = append(out.Pairs, EnzymaticPair{Sheet: sheet, Reference: ref, Validation: val})
	}
	return out, errs
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func (m EnzymaticMetrics) numbers() []float64 {
	return []float64{
		m.ActivityMin, m.ActivityMax,
		float64(m.NBlanks), m.BlankMean, m.BlankSD,
		m.LOD, m.LOQ, m.Sensitivity,
		m.CV[0], m.CV[1], m.CV[2],
		float64(len(m.Samples)),
	}
}

// Row renders the metric vector as a table row labelled with source.
func (m EnzymaticMetrics) Row(source string) []string {
	row := []string{source, m.Sheet, strconv.Itoa(m.Zone)}
	for _, v := range m.numbers() {
		row = append(row, formatNumber(v))
	}
	for _, s := range m.Samples {
		row = append(row, s.Label, formatNumber(s.Activity), formatNumber(s.Value), formatNumber(s.RSD))
	}
	return row
}

// DiffRow renders the paired percent differences of the sheet, led by the
// "diff %" label. Samples are paired by position.
func (p EnzymaticPair) DiffRow() []string {
	ref, val := p.Reference.numbers(), p.Validation.numbers()
	row := []string{SourceDiff, p.Sheet, strconv.Itoa(p.Reference.Zone)}
	for i := range ref {
		row = append(row, formatNumber(percentDiff(ref[i], val[i])))
	}
	n := len(p.Reference.Samples)
	if len(p.Validation.Samples) < n {
		n = len(p.Validation.Samples)
	}
	for i := 0; i < n; i++ {
		rs, vs := p.Reference.Samples[i], p.Validation.Samples[i]
		row = append(row, rs.Label,
			formatNumber(percentDiff(rs.Activity, vs.Activity)),
			formatNumber(percentDiff(rs.Value, vs.Value)),
			formatNumber(percentDiff(rs.RSD, vs.RSD)))
	}
	return row
}

// Table returns reference, validation and diff rows for every compared sheet.
func (c *EnzymaticComparison) Table() [][]string {
	var rows [][]string
	for _, p := range c.Pairs {
		rows = append(rows,
			p.Reference.Row(SourceReference),
			p.Validation.Row(SourceValidation),
			p.DiffRow())
	}
	return rows
}

// SamplesForWidth infers the number of sample groups from a row width.
func SamplesForWidth(width int) int {
	if width <= EnzymaticFixedColumns {
		return 0
	}
	return (width - EnzymaticFixedColumns) / EnzymaticSampleColumns
}

// EnzymaticHeader builds the header matching the widest row of rows.
func EnzymaticHeader(rows [][]string) []string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	header := []string{
		"source", "sheet", "zone", "activity_min", "activity_max",
		"n_blanks", "blank_mean", "blank_sd", "LOD", "LOQ", "sensitivity",
	}
	for _, t := range DegradationThresholds {
		header = append(header, fmt.Sprintf("CV_%g%%", t))
	}
	header = append(header, "n_samples")
	for i := 1; i <= SamplesForWidth(width); i++ {
		header = append(header,
			fmt.Sprintf("sample_%d", i),
			fmt.Sprintf("activity_%d", i),
			fmt.Sprintf("value_%d", i),
			fmt.Sprintf("rsd_%d", i))
	}
	return header
}
