package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/user/plate_validator_go/internal/analysis"
)

// File names inside the results directory.
const (
	WellResultsFile = "comparaison_resultats_puits.csv"
	LodLoqFile      = "comparaison_LOD_LOQ.csv"
	EnzymaticFile   = "data_compar_enzymo_2_ref.csv"
	HeatmapFile     = "calibration_diff_heatmap.png"
)

var (
	WellResultsHeader = []string{"activity", "zone", "measured", "reference", "diff", "valid"}
	LodLoqHeader      = []string{
		"zone", "lod_ref", "lod_meas", "loq_ref", "loq_meas", "diff_lod", "diff_loq",
		"lod_valid", "loq_valid", "n_blanks_ref", "n_blanks_meas",
	}
)

// formatFloat renders a table value; NaN becomes an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func encodeCSV(comma rune, header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

// WellResultsCSV renders the calibration comparison table.
func WellResultsCSV(records []analysis.WellRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			formatFloat(r.Activity),
			strconv.Itoa(r.Zone),
			formatFloat(r.Measured),
			formatFloat(r.Reference),
			formatFloat(r.Diff),
			strconv.FormatBool(r.Valid),
		})
	}
	return encodeCSV(',', WellResultsHeader, rows)
}

// LodLoqCSV renders the detection-limit comparison table.
func LodLoqCSV(records []analysis.LodLoqRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Zone),
			formatFloat(r.LODRef),
			formatFloat(r.LODMeas),
			formatFloat(r.LOQRef),
			formatFloat(r.LOQMeas),
			formatFloat(r.DiffLOD),
			formatFloat(r.DiffLOQ),
			strconv.FormatBool(r.LODValid),
			strconv.FormatBool(r.LOQValid),
			strconv.Itoa(r.NBlanksRef),
			strconv.Itoa(r.NBlanksMeas),
		})
	}
	return encodeCSV(',', LodLoqHeader, rows)
}

// EnzymaticCSV renders the enzymatic comparison as a semicolon-delimited
// table. Rows are padded to the header width, which follows the widest row.
func EnzymaticCSV(cmp *analysis.EnzymaticComparison) ([]byte, error) {
	var rows [][]string
	if cmp != nil {
		rows = cmp.Table()
	}
	header := analysis.EnzymaticHeader(rows)
	padded := make([][]string, 0, len(rows))
	for _, r := range rows {
		if len(r) < len(header) {
			r = append(r, make([]string, len(header)-len(r))...)
		}
		padded = append(padded, r)
	}
	return encodeCSV(';', header, padded)
}
