package analysis

import (
	"math"

	"github.com/user/plate_validator_go/internal/apperr"
)

const (
	lodLoqComponent = "lod_loq"

	lodFactor = 3
	loqFactor = 10
)

// ComputeDetectionLimits derives LOD = mean + 3·sd and LOQ = mean + 10·sd from
// blank values, sd being the population standard deviation.
func ComputeDetectionLimits(blanks []float64) DetectionLimits {
	mean, sd := populationMeanSD(blanks)
	return DetectionLimits{
		N:    len(blanks),
		Mean: mean,
		SD:   sd,
		LOD:  mean + lodFactor*sd,
		LOQ:  mean + loqFactor*sd,
	}
}

// LimitWithinTolerance checks a detection limit difference against the
// tolerance of the reference limit. The difference is taken relative to the
// reference, in percent; a zero reference falls back to the absolute difference.
// Unlike the calibration rule, which compares tolerance to |diff| directly,
// this one compares it to the relative difference; keep the two separate.
func LimitWithinTolerance(diff, reference float64) bool {
	rel := math.Abs(diff)
	if reference != 0 {
		rel = math.Abs(diff) / math.Abs(reference) * 100
	}
	return rel <= Tolerance(reference)
}

// CompareDetectionLimits produces one LodLoqRecord per zone. A zone with fewer
// than two valid blanks on either side is reported as an error and skipped.
func CompareDetectionLimits(measured, reference ZoneSource) ([]LodLoqRecord, []*apperr.Error) {
	if err := CheckZoneCounts(lodLoqComponent, measured, reference); err != nil {
		return nil, []*apperr.Error{err}
	}

	var (
		records []LodLoqRecord
		errs    []*apperr.Error
	)
	for z := 0; z < reference.ZoneCount(); z++ {
		rBlanks, rErr := reference.ValidBlanks(z)
		mBlanks, mErr := measured.ValidBlanks(z)
		if rErr != nil {
			errs = append(errs, apperr.Wrap(rErr, apperr.KindInsufficientData, lodLoqComponent, "reference blanks").InZone(z+1))
		}
		if mErr != nil {
			errs = append(errs, apperr.Wrap(mErr, apperr.KindInsufficientData, lodLoqComponent, "measured blanks").InZone(z+1))
		}
		if rErr != nil || mErr != nil {
			continue
		}

		ref := ComputeDetectionLimits(rBlanks)
		meas := ComputeDetectionLimits(mBlanks)
		rec := LodLoqRecord{
			Zone:        z + 1,
			LODRef:      ref.LOD,
			LODMeas:     meas.LOD,
			LOQRef:      ref.LOQ,
			LOQMeas:     meas.LOQ,
			DiffLOD:     meas.LOD - ref.LOD,
			DiffLOQ:     meas.LOQ - ref.LOQ,
			NBlanksRef:  ref.N,
			NBlanksMeas: meas.N,
		}
		rec.LODValid = LimitWithinTolerance(rec.DiffLOD, rec.LODRef)
		rec.LOQValid = LimitWithinTolerance(rec.DiffLOQ, rec.LOQRef)
		records = append(records, rec)
	}
	return records, errs
}
