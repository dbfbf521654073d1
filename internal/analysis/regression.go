package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/user/plate_validator_go/internal/apperr"
	"gonum.org/v1/gonum/stat"
)

const (
	regressionComponent = "regression"

	// OutlierRelResidual is the relative residual above which a well is an outlier.
	OutlierRelResidual = 0.05
)

// Variant selects the regression flavor from the plate type tag.
type Variant string

const (
	VariantThinFilm Variant = "SC"
	VariantMicrodot Variant = "GP"
)

// VariantForPlate maps a plate type tag to its regression variant.
func VariantForPlate(plateType string) (Variant, error) {
	switch Variant(strings.ToUpper(strings.TrimSpace(plateType))) {
	case VariantThinFilm:
		return VariantThinFilm, nil
	case VariantMicrodot:
		return VariantMicrodot, nil
	}
	return "", apperr.Newf(apperr.KindSchemaMismatch, regressionComponent, "unknown plate type %q", plateType)
}

func (v Variant) String() string {
	switch v {
	case VariantThinFilm:
		return "thin-film"
	case VariantMicrodot:
		return "microdot"
	}
	return string(v)
}

// LineFit is an ordinary least squares fit y = Slope·x + Intercept.
type LineFit struct {
	Slope     float64
	Intercept float64
	R         float64
	NOutliers int
}

// RSquared returns the squared Pearson correlation.
func (f LineFit) RSquared() float64 {
	return f.R * f.R
}

// FitLine fits y on x and counts the points whose residual exceeds
// OutlierRelResidual of the fitted value.
func FitLine(x, y []float64) (LineFit, error) {
	if len(x) != len(y) {
		return LineFit{}, fmt.Errorf("vector length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return LineFit{}, fmt.Errorf("%d point(s), at least 2 required", len(x))
	}
	if _, sd := populationMeanSD(x); sd == 0 {
		return LineFit{}, fmt.Errorf("reference values are constant")
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := LineFit{
		Slope:     slope,
		Intercept: intercept,
		R:         stat.Correlation(x, y, nil),
	}
	for i := range x {
		predicted := slope*x[i] + intercept
		residual := math.Abs(y[i] - predicted)
		if predicted == 0 {
			if residual > 0 {
				fit.NOutliers++
			}
			continue
		}
		if residual/math.Abs(predicted) > OutlierRelResidual {
			fit.NOutliers++
		}
	}
	return fit, nil
}

// RelativeErrorStats returns the mean and the coefficient of variation of
// (y-x)/x·100. Points with x = 0 are skipped and counted in skipped.
func RelativeErrorStats(x, y []float64) (mean, cv float64, skipped int) {
	deltas := make([]float64, 0, len(x))
	for i := range x {
		if x[i] == 0 {
			skipped++
			continue
		}
		deltas = append(deltas, (y[i]-x[i])/x[i]*100)
	}
	m, sd := populationMeanSD(deltas)
	return m, coefficientOfVariation(m, sd), skipped
}

// RegressionResult is the report shared by both variants.
type RegressionResult struct {
	Name      string    `yaml:"name"`
	Slope     float64   `yaml:"slope"`
	Intercept float64   `yaml:"intercept"`
	R         float64   `yaml:"r"`
	NOutliers int       `yaml:"n_outliers"`
	DiffMean  float64   `yaml:"diff_mean"`
	DiffCV    float64   `yaml:"diff_cv"`
	Wells     []string  `yaml:"wells"`
	Measured  []float64 `yaml:"vector_measured"`
	Reference []float64 `yaml:"vector_reference"`
	GraphPath string    `yaml:"graph_path,omitempty"`
}

// RSquared returns r².
func (r *RegressionResult) RSquared() float64 {
	return r.R * r.R
}

// MicrodotResult adds the dot diameter statistics.
type MicrodotResult struct {
	RegressionResult `yaml:",inline"`
	DiamDiffMean      float64   `yaml:"diam_diff_mean"`
	DiamDiffCV        float64   `yaml:"diam_diff_cv"`
	DiameterMeasured  []float64 `yaml:"diameter_measured"`
	DiameterReference []float64 `yaml:"diameter_reference"`
}

// RegressionReport holds exactly one of ThinFilm or Microdot, as named by Variant.
type RegressionReport struct {
	Variant  Variant           `yaml:"variant"`
	ThinFilm *RegressionResult `yaml:"thin_film,omitempty"`
	Microdot *MicrodotResult   `yaml:"microdot,omitempty"`
}

// Common returns the part of the report both variants share.
func (r *RegressionReport) Common() *RegressionResult {
	if r == nil {
		return nil
	}
	switch r.Variant {
	case VariantMicrodot:
		if r.Microdot != nil {
			return &r.Microdot.RegressionResult
		}
	case VariantThinFilm:
		return r.ThinFilm
	}
	return nil
}

type wellPairs struct {
	wells      []string
	x, y       []float64
	dx, dy     []float64
	unmatched  int
	missingDia int
}

// pairWells matches measured and reference wells by zone and well id.
// Reference order drives the output order.
func pairWells(measured, reference ZoneSource, withDiameter bool) (*wellPairs, []*apperr.Error) {
	p := &wellPairs{}
	var errs []*apperr.Error
	for z := 0; z < reference.ZoneCount(); z++ {
		rWells, err := reference.Wells(z)
		if err != nil {
			errs = append(errs, apperr.Wrap(err, apperr.KindSchemaMismatch, regressionComponent, "reference wells").InZone(z+1))
			continue
		}
		mWells, err := measured.Wells(z)
		if err != nil {
			errs = append(errs, apperr.Wrap(err, apperr.KindSchemaMismatch, regressionComponent, "measured wells").InZone(z+1))
			continue
		}
		byID := make(map[string]int, len(mWells))
		for i, w := range mWells {
			byID[w.WellID] = i
		}
		for _, rw := range rWells {
			i, ok := byID[rw.WellID]
			if !ok {
				p.unmatched++
				continue
			}
			mw := mWells[i]
			p.wells = append(p.wells, fmt.Sprintf("Z%d:%s", z+1, rw.WellID))
			p.x = append(p.x, rw.Value)
			p.y = append(p.y, mw.Value)
			if withDiameter {
				if rw.HasDiameter && mw.HasDiameter {
					p.dx = append(p.dx, rw.Diameter)
					p.dy = append(p.dy, mw.Diameter)
				} else {
					p.missingDia++
				}
			}
		}
	}
	return p, errs
}

// CompareRegression pairs per-well values of all zones and fits measured on
// reference. The returned warnings cover unmatched wells and undefined spreads;
// the errors cover anything that prevented a fit.
func CompareRegression(name string, variant Variant, measured, reference ZoneSource) (report *RegressionReport, errs, warnings []*apperr.Error) {
	if err := CheckZoneCounts(regressionComponent, measured, reference); err != nil {
		return nil, []*apperr.Error{err}, nil
	}

	pairs, pairErrs := pairWells(measured, reference, variant == VariantMicrodot)
	errs = append(errs, pairErrs...)
	if pairs.unmatched > 0 {
		warnings = append(warnings, apperr.Newf(apperr.KindSchemaMismatch, regressionComponent,
			"%d reference well(s) without a measured counterpart", pairs.unmatched))
	}

	fit, err := FitLine(pairs.x, pairs.y)
	if err != nil {
		errs = append(errs, apperr.Wrap(err, apperr.KindInsufficientData, regressionComponent, "degenerate regression"))
		return nil, errs, warnings
	}
	mean, cv, skipped := RelativeErrorStats(pairs.x, pairs.y)
	if skipped > 0 {
		warnings = append(warnings, apperr.Newf(apperr.KindInsufficientData, regressionComponent,
			"%d well(s) with a zero reference value left out of the relative error", skipped))
	}
	if math.IsNaN(cv) {
		warnings = append(warnings, apperr.New(apperr.KindInsufficientData, regressionComponent,
			"relative error CV undefined (zero mean)"))
	}

	common := RegressionResult{
		Name:      name,
		Slope:     fit.Slope,
		Intercept: fit.Intercept,
		R:         fit.R,
		NOutliers: fit.NOutliers,
		DiffMean:  mean,
		DiffCV:    cv,
		Wells:     pairs.wells,
		Measured:  pairs.y,
		Reference: pairs.x,
	}

	report = &RegressionReport{Variant: variant}
	switch variant {
	case VariantMicrodot:
		md := &MicrodotResult{RegressionResult: common, DiameterMeasured: pairs.dy, DiameterReference: pairs.dx}
		if pairs.missingDia > 0 {
			warnings = append(warnings, apperr.Newf(apperr.KindInsufficientData, regressionComponent,
				"%d well(s) without a diameter on one side", pairs.missingDia))
		}
		if len(pairs.dx) == 0 {
			errs = append(errs, apperr.New(apperr.KindInsufficientData, regressionComponent, "no paired diameters"))
			md.DiamDiffMean, md.DiamDiffCV = math.NaN(), math.NaN()
		} else {
			md.DiamDiffMean, md.DiamDiffCV, _ = RelativeErrorStats(pairs.dx, pairs.dy)
		}
		report.Microdot = md
	default:
		report.ThinFilm = &common
	}
	return report, errs, warnings
}
