package analysis

import (
	"github.com/user/plate_validator_go/internal/parser"
)

// ZoneSource is the zone-indexed view of a WellResults spreadsheet the
// comparators read from. *parser.WellResults satisfies it.
type ZoneSource interface {
	ZoneCount() int
	SheetNames() []string
	Calibration(zone int) ([]parser.CalibrationPoint, error)
	ActivityRange(zone int) ([]float64, error)
	ValidBlanks(zone int) ([]float64, error)
	Wells(zone int) ([]parser.WellMeasure, error)
}

// WellRecord is one calibration row compared between measured and reference data.
type WellRecord struct {
	Activity  float64 `yaml:"activity"`
	Zone      int     `yaml:"zone"` // 1-based
	Measured  float64 `yaml:"measured"`
	Reference float64 `yaml:"reference"`
	Diff      float64 `yaml:"diff"`
	Valid     bool    `yaml:"valid"`
}

// LodLoqRecord compares the detection and quantification limits of one zone.
type LodLoqRecord struct {
	Zone        int     `yaml:"zone"` // 1-based
	LODRef      float64 `yaml:"lod_ref"`
	LODMeas     float64 `yaml:"lod_meas"`
	LOQRef      float64 `yaml:"loq_ref"`
	LOQMeas     float64 `yaml:"loq_meas"`
	DiffLOD     float64 `yaml:"diff_lod"`
	DiffLOQ     float64 `yaml:"diff_loq"`
	LODValid    bool    `yaml:"lod_valid"`
	LOQValid    bool    `yaml:"loq_valid"`
	NBlanksRef  int     `yaml:"n_blanks_ref"`
	NBlanksMeas int     `yaml:"n_blanks_meas"`
}

// DetectionLimits summarizes the valid blanks of one zone.
type DetectionLimits struct {
	N    int
	Mean float64
	SD   float64 // population standard deviation
	LOD  float64
	LOQ  float64
}
