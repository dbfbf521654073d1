// Package verdict turns a validation result into a pass/fail decision.
package verdict

import (
	"fmt"

	"github.com/user/plate_validator_go/internal/config"
	"github.com/user/plate_validator_go/internal/validation"
)

// Check is the outcome of one acceptance criterion.
type Check struct {
	Name   string `yaml:"name"`
	Detail string `yaml:"detail"`
	Pass   bool   `yaml:"pass"`
}

// Verdict is the list of checks and their conjunction.
type Verdict struct {
	Checks []Check `yaml:"checks"`
	Passed bool    `yaml:"passed"`
}

// Failed returns the checks that did not pass.
func (v *Verdict) Failed() []Check {
	var out []Check
	for _, c := range v.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

func (v *Verdict) add(name string, pass bool, format string, args ...interface{}) {
	v.Checks = append(v.Checks, Check{Name: name, Detail: fmt.Sprintf(format, args...), Pass: pass})
}

// Evaluate applies the acceptance thresholds to res. The regression checks
// are only evaluated when the run compared against the reference.
func Evaluate(res *validation.Result, t config.Thresholds) *Verdict {
	v := &Verdict{}

	valid := 0
	for _, r := range res.WellResults {
		if r.Valid {
			valid++
		}
	}
	n := len(res.WellResults)
	v.add("calibration", n > 0 && valid == n, "%d/%d calibration rows within tolerance", valid, n)

	limitsOK := 0
	for _, r := range res.LodLoq {
		if r.LODValid && r.LOQValid {
			limitsOK++
		}
	}
	v.add("detection limits", len(res.LodLoq) > 0 && limitsOK == len(res.LodLoq),
		"%d/%d zones with LOD and LOQ within tolerance", limitsOK, len(res.LodLoq))

	if res.Options.CompareToReference {
		evaluateRegression(v, res, t)
	}

	lg := res.LogAnalysis
	v.add("log analysis", lg != nil && lg.LastAcquisitionLine >= 0 && len(res.ErrorsFrom("log_analysis")) == 0,
		"%s", logDetail(res))

	v.Passed = true
	for _, c := range v.Checks {
		v.Passed = v.Passed && c.Pass
	}
	return v
}

func evaluateRegression(v *Verdict, res *validation.Result, t config.Thresholds) {
	if res.Regression == nil || res.Regression.Common() == nil {
		v.add("regression", false, "regression against reference unavailable")
		return
	}
	r := res.Regression.Common()
	v.add("slope", r.Slope >= t.SlopeMin && r.Slope <= t.SlopeMax,
		"%.4f in [%g, %g]", r.Slope, t.SlopeMin, t.SlopeMax)
	v.add("intercept", r.Intercept >= t.InterceptMin && r.Intercept <= t.InterceptMax,
		"%.4f in [%g, %g]", r.Intercept, t.InterceptMin, t.InterceptMax)
	r2 := r.RSquared()
	v.add("r2", r2 >= t.R2Min, "%.4f >= %g", r2, t.R2Min)
	v.add("outliers", r.NOutliers < t.MaxOutliers, "%d < %d", r.NOutliers, t.MaxOutliers)
}

func logDetail(res *validation.Result) string {
	lg := res.LogAnalysis
	if lg == nil {
		return "no hardware log analyzed"
	}
	if errs := res.ErrorsFrom("log_analysis"); len(errs) > 0 {
		return errs[0].Error()
	}
	return fmt.Sprintf("%s strategy, %.1f min, %d measurement(s)", lg.Strategy, lg.DurationMinutes, lg.TotalMeasurements)
}
