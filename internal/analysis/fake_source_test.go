package analysis

import (
	"errors"

	"github.com/user/plate_validator_go/internal/parser"
)

type fakeZone struct {
	name        string
	calibration []parser.CalibrationPoint
	blanks      []float64
	wells       []parser.WellMeasure
	calErr      error
	wellsErr    error
}

type fakeSource struct {
	zones []fakeZone
}

func (f *fakeSource) ZoneCount() int { return len(f.zones) }

func (f *fakeSource) SheetNames() []string {
	names := make([]string, len(f.zones))
	for i, z := range f.zones {
		names[i] = z.name
	}
	return names
}

func (f *fakeSource) Calibration(zone int) ([]parser.CalibrationPoint, error) {
	z := f.zones[zone]
	return z.calibration, z.calErr
}

func (f *fakeSource) ActivityRange(zone int) ([]float64, error) {
	points, err := f.Calibration(zone)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Activity
	}
	return out, nil
}

func (f *fakeSource) ValidBlanks(zone int) ([]float64, error) {
	b := f.zones[zone].blanks
	if len(b) < parser.MinValidBlanks {
		return b, errors.New("not enough blanks")
	}
	return b, nil
}

func (f *fakeSource) Wells(zone int) ([]parser.WellMeasure, error) {
	z := f.zones[zone]
	return z.wells, z.wellsErr
}

func standardFakeZone(name string) fakeZone {
	return fakeZone{
		name: name,
		calibration: []parser.CalibrationPoint{
			{Activity: 1, Value: 100, Stdev: 12},
			{Activity: 2, Value: 200, Stdev: 7},
			{Activity: 5, Value: 500, Stdev: 4},
			{Activity: 10, Value: 1000, Stdev: 1},
		},
		blanks: []float64{0.1, 0.12, 0.08},
		wells: []parser.WellMeasure{
			{WellID: "B1", Value: 20, Diameter: 300, HasDiameter: true},
			{WellID: "B2", Value: 30, Diameter: 310, HasDiameter: true},
			{WellID: "B3", Value: 45, Diameter: 320, HasDiameter: true},
		},
	}
}

func cloneSource(src *fakeSource) *fakeSource {
	out := &fakeSource{}
	for _, z := range src.zones {
		cp := z
		cp.calibration = append([]parser.CalibrationPoint(nil), z.calibration...)
		cp.blanks = append([]float64(nil), z.blanks...)
		cp.wells = append([]parser.WellMeasure(nil), z.wells...)
		out.zones = append(out.zones, cp)
	}
	return out
}
