// Package testkit builds WellResults workbooks and hardware logs for tests.
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/plate_validator_go/internal/parser"
	"github.com/xuri/excelize/v2"
)

// Zone describes one sheet of a generated workbook.
type Zone struct {
	Name        string
	Calibration []parser.CalibrationPoint
	Blanks      []parser.BlankMeasurement
	Wells       []parser.WellMeasure
	// CommaDecimals writes numbers as text with a comma separator.
	CommaDecimals bool
	// OmitBlankBlock leaves the WellBlankResult block out of the sheet.
	OmitBlankBlock bool
}

func (z Zone) num(v float64) interface{} {
	if z.CommaDecimals {
		s := fmt.Sprintf("%g", v)
		out := []rune(s)
		for i, r := range out {
			if r == '.' {
				out[i] = ','
			}
		}
		return string(out)
	}
	return v
}

// Rows renders the zone in the layout the acquisition suite emits.
func (z Zone) Rows() [][]interface{} {
	rows := [][]interface{}{
		{"Zone", z.Name},
		{},
		{parser.CalibrationBlock},
		{"Activity", "Value", "SD", "CV"},
	}
	for _, p := range z.Calibration {
		rows = append(rows, []interface{}{z.num(p.Activity), z.num(p.Value), z.num(p.Stdev * p.Value / 100), z.num(p.Stdev)})
	}
	rows = append(rows, []interface{}{})

	if !z.OmitBlankBlock {
		rows = append(rows, []interface{}{parser.BlankBlock}, []interface{}{"Well", "Type", "Zymunit", "Excluded"})
		for _, b := range z.Blanks {
			rows = append(rows, []interface{}{b.WellID, "Blank", z.num(b.Zymunit), fmt.Sprintf("%t", b.Excluded)})
		}
		rows = append(rows, []interface{}{})
	}

	if len(z.Wells) > 0 {
		rows = append(rows, []interface{}{parser.MeasureBlock}, []interface{}{"Well", "Value", "Diameter"})
		for _, w := range z.Wells {
			row := []interface{}{w.WellID, z.num(w.Value)}
			if w.HasDiameter {
				row = append(row, z.num(w.Diameter))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteWellResults writes a workbook with one sheet per zone into dir and
// returns its path.
func WriteWellResults(t testing.TB, dir, name string, zones []Zone) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, z := range zones {
		sheet := z.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range z.Rows() {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				t.Fatalf("write row: %v", err)
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// StandardZone returns a well-formed zone whose values scale with factor.
func StandardZone(name string, factor float64) Zone {
	activities := []float64{0.5, 1, 2, 5, 10, 20}
	z := Zone{Name: name}
	for i, a := range activities {
		z.Calibration = append(z.Calibration, parser.CalibrationPoint{
			Activity: a,
			Value:    (100 + 40*float64(i)) * factor,
			Stdev:    12 - 1.5*float64(i),
		})
	}
	z.Blanks = []parser.BlankMeasurement{
		{WellID: "A1", Zymunit: 0.10},
		{WellID: "A2", Zymunit: 0.12},
		{WellID: "A3", Zymunit: 0.08},
		{WellID: "A4", Zymunit: 0.50, Excluded: true},
	}
	for i := 0; i < 8; i++ {
		z.Wells = append(z.Wells, parser.WellMeasure{
			WellID:      fmt.Sprintf("B%d", i+1),
			Value:       (20 + 5*float64(i)) * factor,
			Diameter:    (300 + 10*float64(i)) * factor,
			HasDiameter: true,
		})
	}
	return z
}
