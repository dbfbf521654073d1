// Package validation runs every comparison of a deployment acceptance check
// and gathers the outcome into one Result.
package validation

import (
	"time"

	"github.com/user/plate_validator_go/internal/analysis"
	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/loganalysis"
)

// Options toggles the optional comparisons.
type Options struct {
	CompareToReference          bool `yaml:"compare_to_reference"`
	CompareEnzymaticToReference bool `yaml:"compare_enzymatic_to_reference"`
}

// ProgressFunc receives a completion percentage and a short message after
// each step. It is called from the goroutine running the validation.
type ProgressFunc func(percent int, message string)

// Request describes one validation run.
type Request struct {
	MeasuredDir  string
	ReferenceDir string
	PlateType    string
	Options      Options
	Progress     ProgressFunc
}

// Result is everything a run produced. Partial data is kept next to the
// errors that prevented the rest.
type Result struct {
	RunID         string                        `yaml:"run_id"`
	MeasuredDir   string                        `yaml:"measured_dir"`
	ReferenceDir  string                        `yaml:"reference_dir"`
	PlateType     string                        `yaml:"plate_type"`
	Options       Options                       `yaml:"options"`
	StartedAt     time.Time                     `yaml:"started_at"`
	FinishedAt    time.Time                     `yaml:"finished_at"`
	MeasuredFile  string                        `yaml:"measured_file,omitempty"`
	ReferenceFile string                        `yaml:"reference_file,omitempty"`
	WellResults   []analysis.WellRecord         `yaml:"well_results"`
	LodLoq        []analysis.LodLoqRecord       `yaml:"lod_loq"`
	Regression    *analysis.RegressionReport    `yaml:"regression,omitempty"`
	Enzymatic     *analysis.EnzymaticComparison `yaml:"enzymatic,omitempty"`
	LogAnalysis   *loganalysis.Analysis         `yaml:"log_analysis,omitempty"`
	OutputDir     string                        `yaml:"output_dir,omitempty"`
	Outputs       []string                      `yaml:"outputs,omitempty"`
	Errors        []*apperr.Error               `yaml:"errors"`
	Warnings      []*apperr.Error               `yaml:"warnings"`
}

// HasErrors reports whether any hard failure was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorsFrom returns the recorded errors raised by component.
func (r *Result) ErrorsFrom(component string) []*apperr.Error {
	var out []*apperr.Error
	for _, e := range r.Errors {
		if e.Component == component {
			out = append(out, e)
		}
	}
	return out
}

func (r *Result) addErrors(errs ...*apperr.Error) {
	for _, e := range errs {
		if e != nil {
			r.Errors = append(r.Errors, e)
		}
	}
}

func (r *Result) addWarnings(warnings ...*apperr.Error) {
	for _, w := range warnings {
		if w != nil {
			r.Warnings = append(r.Warnings, w)
		}
	}
}

// Outcome is what RunInBackground delivers once the run ends.
type Outcome struct {
	Result *Result
	Err    error
}
