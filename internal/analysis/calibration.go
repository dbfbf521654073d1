package analysis

import (
	"fmt"

	"github.com/user/plate_validator_go/internal/apperr"
)

// ActivityRTol is the relative tolerance under which measured and reference
// activity sequences are considered the same.
const ActivityRTol = 1e-6

const calibrationComponent = "calibration"

// CheckZoneCounts fails when measured and reference expose a different number of zones.
func CheckZoneCounts(component string, measured, reference ZoneSource) *apperr.Error {
	if m, r := measured.ZoneCount(), reference.ZoneCount(); m != r {
		return apperr.Newf(apperr.KindSchemaMismatch, component, "zone count mismatch: measured %d, reference %d", m, r)
	}
	return nil
}

func compareActivities(measured, reference []float64) error {
	if len(measured) != len(reference) {
		return fmt.Errorf("activity range length mismatch: measured %d, reference %d", len(measured), len(reference))
	}
	for i := range measured {
		if !closeRel(measured[i], reference[i], ActivityRTol) {
			return fmt.Errorf("activity %d differs: measured %g, reference %g", i+1, measured[i], reference[i])
		}
	}
	return nil
}

// CompareCalibration aligns the calibration rows of every zone by activity and
// checks each measured value against the reference within Tolerance. A zone
// whose activity sequences disagree yields an error and no rows; other zones
// are still compared. A zone count mismatch stops the comparison.
func CompareCalibration(measured, reference ZoneSource) ([]WellRecord, []*apperr.Error) {
	if err := CheckZoneCounts(calibrationComponent, measured, reference); err != nil {
		return nil, []*apperr.Error{err}
	}

	var (
		records []WellRecord
		errs    []*apperr.Error
	)
	for z := 0; z < reference.ZoneCount(); z++ {
		zoneRecords, err := compareCalibrationZone(measured, reference, z)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, zoneRecords...)
	}
	return records, errs
}

func compareCalibrationZone(measured, reference ZoneSource, z int) ([]WellRecord, *apperr.Error) {
	mPoints, err := measured.Calibration(z)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindSchemaMismatch, calibrationComponent, "measured calibration").InZone(z + 1)
	}
	rPoints, err := reference.Calibration(z)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindSchemaMismatch, calibrationComponent, "reference calibration").InZone(z + 1)
	}
	mActs, _ := measured.ActivityRange(z)
	rActs, _ := reference.ActivityRange(z)
	if err := compareActivities(mActs, rActs); err != nil {
		return nil, apperr.Wrap(err, apperr.KindSchemaMismatch, calibrationComponent, "activity ranges disagree").InZone(z + 1)
	}

	records := make([]WellRecord, len(rPoints))
	for i, ref := range rPoints {
		meas := mPoints[i]
		diff := meas.Stdev - ref.Stdev
		records[i] = WellRecord{
			Activity:  ref.Activity,
			Zone:      z + 1,
			Measured:  meas.Stdev,
			Reference: ref.Stdev,
			Diff:      diff,
			Valid:     WithinTolerance(diff, ref.Stdev),
		}
	}
	return records, nil
}
