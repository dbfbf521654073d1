package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/parser"
)

func TestComputeEnzymaticMetrics(t *testing.T) {
	src := &fakeSource{zones: []fakeZone{standardFakeZone("Z1")}}
	src.zones[0].blanks = []float64{140, 160}

	m, err := ComputeEnzymaticMetrics(src, 0, "Z1")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Zone)
	assert.Equal(t, 1.0, m.ActivityMin)
	assert.Equal(t, 10.0, m.ActivityMax)
	assert.Equal(t, 2, m.NBlanks)
	assert.InDelta(t, 150.0, m.BlankMean, 1e-12)
	assert.InDelta(t, 10.0, m.BlankSD, 1e-12)
	assert.InDelta(t, 180.0, m.LOD, 1e-12)
	assert.InDelta(t, 250.0, m.LOQ, 1e-12)
	// signal 180 lies between (1,100) and (2,200)
	assert.InDelta(t, 1.8, m.Sensitivity, 1e-12)

	// max signal 1000: 30 % -> 300 between (2,200,7) and (5,500,4)
	assert.InDelta(t, 7-3.0/3.0, m.CV[0], 1e-12)
	// 50 % -> 500 hits (5,500,4) exactly
	assert.InDelta(t, 4.0, m.CV[1], 1e-12)
	// 70 % -> 700 between (5,500,4) and (10,1000,1)
	assert.InDelta(t, 4-3*0.4, m.CV[2], 1e-12)

	require.Len(t, m.Samples, 4)
	assert.Equal(t, "S1", m.Samples[0].Label)
	assert.Equal(t, 12.0, m.Samples[0].RSD)
}

func TestSensitivityClamped(t *testing.T) {
	points := standardFakeZone("Z").calibration
	assert.Equal(t, 1.0, activityAtSignal(points, 10))
	assert.Equal(t, 10.0, activityAtSignal(points, 5000))
	assert.True(t, math.IsNaN(activityAtSignal(points, math.NaN())))
}

func TestCompareEnzymaticSkipsMissingSheet(t *testing.T) {
	ref := &fakeSource{zones: []fakeZone{standardFakeZone("A"), standardFakeZone("B"), standardFakeZone("C")}}
	meas := &fakeSource{zones: []fakeZone{standardFakeZone("C"), standardFakeZone("A")}}

	cmp, errs := CompareEnzymatic(meas, ref)
	require.Len(t, errs, 1)
	assert.Equal(t, apperr.KindMissingFile, errs[0].Kind)
	require.Len(t, cmp.Pairs, 2)
	assert.Equal(t, "A", cmp.Pairs[0].Sheet)
	assert.Equal(t, "C", cmp.Pairs[1].Sheet)
	assert.Equal(t, 1, cmp.Pairs[1].Validation.Zone)
	assert.Equal(t, 3, cmp.Pairs[1].Reference.Zone)
}

func TestEnzymaticTableLayout(t *testing.T) {
	ref := &fakeSource{zones: []fakeZone{standardFakeZone("A")}}
	meas := cloneSource(ref)
	meas.zones[0].calibration = append(meas.zones[0].calibration, parser.CalibrationPoint{Activity: 20, Value: 1900, Stdev: 1})
	meas.zones[0].blanks = []float64{0.2, 0.24, 0.16}

	cmp, errs := CompareEnzymatic(meas, ref)
	require.Empty(t, errs)
	rows := cmp.Table()
	require.Len(t, rows, 3)

	assert.Equal(t, SourceReference, rows[0][0])
	assert.Equal(t, SourceValidation, rows[1][0])
	assert.Equal(t, SourceDiff, rows[2][0])

	assert.Len(t, rows[0], EnzymaticFixedColumns+4*EnzymaticSampleColumns)
	assert.Len(t, rows[1], EnzymaticFixedColumns+5*EnzymaticSampleColumns)
	assert.Len(t, rows[2], EnzymaticFixedColumns+4*EnzymaticSampleColumns)

	// blank mean doubled: +100 %
	assert.Equal(t, "100", rows[2][6])

	header := EnzymaticHeader(rows)
	assert.Len(t, header, len(rows[1]))
	assert.Equal(t, 5, SamplesForWidth(len(header)))
	assert.Equal(t, "rsd_5", header[len(header)-1])
	assert.Equal(t, "CV_30%", header[11])
}

func TestSamplesForWidth(t *testing.T) {
	assert.Equal(t, 0, SamplesForWidth(10))
	assert.Equal(t, 0, SamplesForWidth(15))
	assert.Equal(t, 0, SamplesForWidth(18))
	assert.Equal(t, 1, SamplesForWidth(19))
	assert.Equal(t, 3, SamplesForWidth(29))
}
