// Package loganalysis characterizes the focus loop of the last acquisition
// recorded in an instrument hardware log.
package loganalysis

// Strategy is the focus strategy inferred from the log vocabulary.
type Strategy string

const (
	StrategyPrior       Strategy = "prior"
	StrategyCustomFocus Strategy = "custom_focus"
)

// WellData is what one well contributed to the focus statistics.
type WellData struct {
	Well             string    `yaml:"well"`
	Values           []float64 `yaml:"values"` // loops (prior) or moves (custom focus) of done measurements
	Timeouts         int       `yaml:"timeouts"`
	AlternateRetries int       `yaml:"alternate_retries,omitempty"`
}

// Measurements returns the number of counted measurements of the well.
func (w WellData) Measurements() int {
	return len(w.Values) + w.Timeouts
}

// Phase is an inclusive range of line indexes forming one alignment phase.
type Phase struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether line index i lies inside the phase.
func (p Phase) Contains(i int) bool {
	return i >= p.Start && i <= p.End
}

// Analysis is the focus characterization of the last acquisition.
type Analysis struct {
	LogPath              string     `yaml:"log_path,omitempty"`
	Strategy             Strategy   `yaml:"strategy"`
	LastAcquisitionLine  int        `yaml:"last_acquisition_line"` // 0-based, -1 when absent
	DurationSeconds      float64    `yaml:"duration_seconds"`
	DurationMinutes      float64    `yaml:"duration_minutes"`
	DriftFixCount        int        `yaml:"drift_fix_count"`
	AlternateRetryCount  int        `yaml:"alternate_retry_count"`
	MaxRetryCount        int        `yaml:"max_retry_count"` // most alternate retries within one well
	MeanMetric           float64    `yaml:"mean_metric"`
	TotalMeasurements    int        `yaml:"total_measurements"`
	DoneMeasurements     int        `yaml:"done_measurements"`
	TimeoutMeasurements  int        `yaml:"timeout_measurements"`
	ExcludedMeasurements int        `yaml:"excluded_measurements"`
	TotalWells           int        `yaml:"total_wells"`
	PerWell              []WellData `yaml:"per_well_data"`
	CyclesDetected       int        `yaml:"cycles_detected,omitempty"` // prior only
	AlignmentPhases      []Phase    `yaml:"alignment_phases,omitempty"`
}
