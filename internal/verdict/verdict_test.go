package verdict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/plate_validator_go/internal/analysis"
	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/config"
	"github.com/user/plate_validator_go/internal/loganalysis"
	"github.com/user/plate_validator_go/internal/validation"
)

func passingResult() *validation.Result {
	reg := &analysis.RegressionResult{Name: "r", Slope: 1.01, Intercept: 0.5, R: 0.995, NOutliers: 2}
	return &validation.Result{
		Options: validation.Options{CompareToReference: true},
		WellResults: []analysis.WellRecord{
			{Zone: 1, Valid: true},
			{Zone: 2, Valid: true},
		},
		LodLoq:      []analysis.LodLoqRecord{{Zone: 1, LODValid: true, LOQValid: true}},
		Regression:  &analysis.RegressionReport{Variant: analysis.VariantThinFilm, ThinFilm: reg},
		LogAnalysis: &loganalysis.Analysis{Strategy: loganalysis.StrategyPrior, LastAcquisitionLine: 3, MeanMetric: 5},
	}
}

func checkByName(t *testing.T, v *Verdict, name string) Check {
	t.Helper()
	for _, c := range v.Checks {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "missing check", "%s", name)
	return Check{}
}

func TestEvaluatePass(t *testing.T) {
	v := Evaluate(passingResult(), config.DefaultConfig().Thresholds)
	assert.True(t, v.Passed)
	assert.Empty(t, v.Failed())
	assert.Len(t, v.Checks, 7)
}

func TestEvaluateRegressionBounds(t *testing.T) {
	th := config.DefaultConfig().Thresholds
	tests := []struct {
		name   string
		mutate func(r *analysis.RegressionResult)
		check  string
	}{
		{"slope high", func(r *analysis.RegressionResult) { r.Slope = 1.06 }, "slope"},
		{"slope low", func(r *analysis.RegressionResult) { r.Slope = 0.94 }, "slope"},
		{"intercept", func(r *analysis.RegressionResult) { r.Intercept = -5.5 }, "intercept"},
		{"r2", func(r *analysis.RegressionResult) { r.R = 0.98 }, "r2"},
		{"outliers exclusive", func(r *analysis.RegressionResult) { r.NOutliers = 10 }, "outliers"},
		{"nan slope", func(r *analysis.RegressionResult) { r.Slope = math.NaN() }, "slope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := passingResult()
			tt.mutate(res.Regression.ThinFilm)
			v := Evaluate(res, th)
			assert.False(t, v.Passed)
			assert.False(t, checkByName(t, v, tt.check).Pass)
		})
	}
}

func TestEvaluateBoundariesInclusive(t *testing.T) {
	res := passingResult()
	r := res.Regression.ThinFilm
	r.Slope, r.Intercept, r.NOutliers = 0.95, 5, 9
	v := Evaluate(res, config.DefaultConfig().Thresholds)
	assert.True(t, v.Passed, "%v", v.Failed())
}

func TestEvaluateWithoutReferenceComparison(t *testing.T) {
	res := passingResult()
	res.Options.CompareToReference = false
	res.Regression = nil
	v := Evaluate(res, config.DefaultConfig().Thresholds)
	assert.True(t, v.Passed)
	assert.Len(t, v.Checks, 3)
}

func TestEvaluateMissingRegression(t *testing.T) {
	res := passingResult()
	res.Regression = nil
	v := Evaluate(res, config.DefaultConfig().Thresholds)
	assert.False(t, v.Passed)
	assert.False(t, checkByName(t, v, "regression").Pass)
}

func TestEvaluateCalibrationAndLimits(t *testing.T) {
	res := passingResult()
	res.WellResults[1].Valid = false
	res.LodLoq[0].LOQValid = false
	v := Evaluate(res, config.DefaultConfig().Thresholds)
	assert.False(t, checkByName(t, v, "calibration").Pass)
	assert.Equal(t, "1/2 calibration rows within tolerance", checkByName(t, v, "calibration").Detail)
	assert.False(t, checkByName(t, v, "detection limits").Pass)

	empty := passingResult()
	empty.WellResults = nil
	assert.False(t, checkByName(t, Evaluate(empty, config.DefaultConfig().Thresholds), "calibration").Pass)
}

func TestEvaluateLogErrors(t *testing.T) {
	res := passingResult()
	res.Errors = append(res.Errors, apperr.New(apperr.KindLogStructureError, "log_analysis", "no end marker after the last acquisition"))
	v := Evaluate(res, config.DefaultConfig().Thresholds)
	c := checkByName(t, v, "log analysis")
	assert.False(t, c.Pass)
	assert.Contains(t, c.Detail, "no end marker")

	res = passingResult()
	res.LogAnalysis = nil
	assert.False(t, Evaluate(res, config.DefaultConfig().Thresholds).Passed)
}
