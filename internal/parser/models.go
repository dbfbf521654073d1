package parser

// Block markers and header tokens of a WellResults sheet.
const (
	CalibrationBlock = "WellCalibrationResult"
	BlankBlock       = "WellBlankResult"
	MeasureBlock     = "WellMeasureResult"

	activityHeader = "Activity"
	wellHeader     = "Well"

	// MinValidBlanks is the smallest number of non-excluded blanks a zone needs.
	MinValidBlanks = 2
)

// CalibrationPoint is one row of a zone's calibration curve.
type CalibrationPoint struct {
	Activity float64
	Value    float64 // mean signal, column 1
	Stdev    float64 // stdev-like relative value, column 3
}

// BlankMeasurement is one blank well of a zone.
type BlankMeasurement struct {
	WellID   string
	Zymunit  float64
	Excluded bool
}

// WellMeasure is one per-well thickness-like reading, with the dot diameter
// when the plate type reports one.
type WellMeasure struct {
	WellID      string
	Value       float64
	Diameter    float64
	HasDiameter bool
}

// Sheet holds everything parsed from one zone sheet. A block that failed to
// parse leaves its slice nil and records the failure in the matching error field.
type Sheet struct {
	Name        string
	Calibration []CalibrationPoint
	Blanks      []BlankMeasurement
	Wells       []WellMeasure

	CalibrationErr error
	BlanksErr      error
	WellsErr       error
}
