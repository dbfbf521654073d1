package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanBlockStates(t *testing.T) {
	rows := [][]string{
		{"header junk"},
		{"WellCalibrationResult (zone 1)"},
		{"some note"},
		{"Activity", "Value", "SD", "CV"},
		{"1", "10", "1", "10"},
		{"2,5", "20", "2", "10"},
		{""},
		{"trailing"},
	}

	b, err := scanBlock(rows, CalibrationBlock, activityHeader)
	require.NoError(t, err)
	assert.Len(t, b.rows, 2)
	assert.Equal(t, 5, b.rowBase)

	_, err = scanBlock(rows, BlankBlock, wellHeader)
	assert.ErrorIs(t, err, errMissingSection)
}

func TestScanBlockHeaderMissingBeforeNextBlock(t *testing.T) {
	rows := [][]string{
		{"WellCalibrationResult"},
		{"no header here"},
		{"WellBlankResult"},
		{"Well", "Type", "Zymunit", "Excluded"},
		{"A1", "Blank", "0.1", "false"},
	}
	_, err := scanBlock(rows, CalibrationBlock, activityHeader)
	assert.ErrorIs(t, err, errMissingHeader)

	b, err := scanBlock(rows, BlankBlock, wellHeader)
	require.NoError(t, err)
	assert.Len(t, b.rows, 1)
}

func TestScanBlockStopsAtNextBlock(t *testing.T) {
	rows := [][]string{
		{"WellBlankResult"},
		{"Well", "Type", "Zymunit", "Excluded"},
		{"A1", "Blank", "0.1", "false"},
		{"WellMeasureResult"},
		{"Well", "Value"},
		{"B1", "3"},
	}
	b, err := scanBlock(rows, BlankBlock, wellHeader)
	require.NoError(t, err)
	assert.Len(t, b.rows, 1)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{"1,5", 1.5},
		{" -0,25 ", -0.25},
		{"1 234,5", 1234.5},
		{"1e-3", 0.001},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, tt.in)
	}

	_, err := ParseDecimal("n/a")
	assert.Error(t, err)
	_, err = ParseDecimal("")
	assert.Error(t, err)
}

func TestParseExcluded(t *testing.T) {
	assert.False(t, ParseExcluded("false"))
	assert.False(t, ParseExcluded("FALSE"))
	assert.False(t, ParseExcluded(""))
	assert.True(t, ParseExcluded("true"))
	assert.True(t, ParseExcluded("1"))
	assert.True(t, ParseExcluded("excluded"))
}
