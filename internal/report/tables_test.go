package report_test

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/plate_validator_go/internal/analysis"
	"github.com/user/plate_validator_go/internal/report"
)

func TestWellResultsCSV(t *testing.T) {
	data, err := report.WellResultsCSV([]analysis.WellRecord{
		{Activity: 0.5, Zone: 1, Measured: 12.5, Reference: 12, Diff: 0.5, Valid: true},
		{Activity: 20, Zone: 2, Measured: 5, Reference: 9, Diff: -4, Valid: false},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "activity,zone,measured,reference,diff,valid", lines[0])
	assert.Equal(t, "0.5,1,12.5,12,0.5,true", lines[1])
	assert.Equal(t, "20,2,5,9,-4,false", lines[2])
}

func TestWellResultsCSVRoundTripKeepsValidity(t *testing.T) {
	records := []analysis.WellRecord{
		{Activity: 0.5, Zone: 1, Measured: 12.5, Reference: 12, Diff: 0.5, Valid: true},
		{Activity: 2, Zone: 1, Measured: math.NaN(), Reference: 3, Diff: math.NaN(), Valid: false},
		{Activity: 20, Zone: 2, Measured: 5, Reference: 9, Diff: -4, Valid: false},
		{Activity: 40, Zone: 3, Measured: 41, Reference: 40, Diff: 1, Valid: true},
	}
	data, err := report.WellResultsCSV(records)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(records)+1)

	validCol := len(report.WellResultsHeader) - 1
	require.Equal(t, "valid", rows[0][validCol])
	for i, rec := range records {
		got, err := strconv.ParseBool(rows[i+1][validCol])
		require.NoError(t, err)
		assert.Equal(t, rec.Valid, got, "row %d", i+1)
	}
}

func TestLodLoqCSV(t *testing.T) {
	data, err := report.LodLoqCSV([]analysis.LodLoqRecord{{
		Zone: 1, LODRef: 0.4, LODMeas: 0.5, LOQRef: 1, LOQMeas: math.NaN(),
		DiffLOD: 0.1, DiffLOQ: math.NaN(), LODValid: false, LOQValid: false,
		NBlanksRef: 3, NBlanksMeas: 1,
	}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(report.LodLoqHeader, ","), lines[0])
	assert.Equal(t, "1,0.4,0.5,1,,0.1,,false,false,3,1", lines[1])
}

func TestEnzymaticCSVPadsRows(t *testing.T) {
	metrics := func(samples int) analysis.EnzymaticMetrics {
		m := analysis.EnzymaticMetrics{Sheet: "Zone 1", Zone: 1, LOD: 1, LOQ: 2}
		for i := 0; i < samples; i++ {
			m.Samples = append(m.Samples, analysis.EnzymaticSample{Label: "S", Activity: 1, Value: 2, RSD: 3})
		}
		return m
	}
	cmp := &analysis.EnzymaticComparison{Pairs: []analysis.EnzymaticPair{
		{Sheet: "Zone 1", Reference: metrics(2), Validation: metrics(1)},
	}}
	data, err := report.EnzymaticCSV(cmp)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	header := strings.Split(lines[0], ";")
	assert.Len(t, header, analysis.EnzymaticFixedColumns+2*analysis.EnzymaticSampleColumns)
	for _, l := range lines[1:] {
		assert.Len(t, strings.Split(l, ";"), len(header))
	}
	assert.True(t, strings.HasPrefix(lines[1], analysis.SourceReference+";"))
	assert.True(t, strings.HasPrefix(lines[2], analysis.SourceValidation+";"))
	assert.True(t, strings.HasPrefix(lines[3], analysis.SourceDiff+";"))
}

func TestEnzymaticCSVEmpty(t *testing.T) {
	data, err := report.EnzymaticCSV(nil)
	require.NoError(t, err)
	header := strings.Split(strings.TrimSpace(string(data)), ";")
	assert.Len(t, header, analysis.EnzymaticFixedColumns)
}
