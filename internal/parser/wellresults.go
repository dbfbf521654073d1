package parser

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/xuri/excelize/v2"
)

const component = "well_results"

var (
	errMissingSection = errors.New("section not found")
	errMissingHeader  = errors.New("header row not found")
)

// WellResultsExtensions lists the spreadsheet extensions accepted for a WellResults file.
var WellResultsExtensions = []string{".xlsx", ".xlsm", ".xltx"}

// WellResults gives zone-indexed access to a parsed WellResults spreadsheet.
// Zone indexes are 0-based; errors name zones 1-based.
type WellResults struct {
	Path   string
	Sheets []Sheet
}

// FindWellResults returns the most recently modified WellResults spreadsheet in dir.
func FindWellResults(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindMissingFile, component, fmt.Sprintf("cannot list %s", dir))
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), "WellResults") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if !hasSpreadsheetExt(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: filepath.Join(dir, e.Name()), modTime: info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", apperr.Newf(apperr.KindMissingFile, component, "no WellResults spreadsheet in %s", dir)
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].modTime != found[j].modTime {
			return found[i].modTime > found[j].modTime
		}
		return found[i].path < found[j].path
	})
	return found[0].path, nil
}

func hasSpreadsheetExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range WellResultsExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// OpenDir locates the WellResults spreadsheet in dir and parses it.
func OpenDir(dir string) (*WellResults, error) {
	path, err := FindWellResults(dir)
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open parses every sheet of the spreadsheet at path. Block-level problems are
// kept per sheet and surface through the zone accessors; only an unreadable file
// fails here.
func Open(path string) (*WellResults, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.Wrap(err, apperr.KindMissingFile, component, fmt.Sprintf("cannot stat %s", path))
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindParseError, component, fmt.Sprintf("cannot open %s", path))
	}
	defer f.Close()

	wr := &WellResults{Path: path}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindParseError, component, fmt.Sprintf("cannot read sheet %q", name))
		}
		wr.Sheets = append(wr.Sheets, ParseSheet(name, rows))
	}
	return wr, nil
}

// ParseSheet extracts the calibration, blank and per-well blocks from raw rows.
func ParseSheet(name string, rows [][]string) Sheet {
	s := Sheet{Name: name}
	s.Calibration, s.CalibrationErr = parseCalibration(rows)
	s.Blanks, s.BlanksErr = parseBlanks(rows)
	s.Wells, s.WellsErr = parseWells(rows)
	return s
}

func parseCalibration(rows [][]string) ([]CalibrationPoint, error) {
	b, err := scanBlock(rows, CalibrationBlock, activityHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CalibrationBlock, err)
	}
	points := make([]CalibrationPoint, 0, len(b.rows))
	for i, row := range b.rows {
		activity, err := ParseDecimal(cellAt(row, 0))
		if err != nil {
			return nil, fmt.Errorf("%s row %d activity: %w", CalibrationBlock, b.rowBase+i, err)
		}
		stdev, err := ParseDecimal(cellAt(row, 3))
		if err != nil {
			return nil, fmt.Errorf("%s row %d column 3: %w", CalibrationBlock, b.rowBase+i, err)
		}
		value := math.NaN()
		if raw := cellAt(row, 1); raw != "" {
			if v, err := ParseDecimal(raw); err == nil {
				value = v
			}
		}
		points = append(points, CalibrationPoint{Activity: activity, Value: value, Stdev: stdev})
	}
	return points, nil
}

func parseBlanks(rows [][]string) ([]BlankMeasurement, error) {
	b, err := scanBlock(rows, BlankBlock, wellHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BlankBlock, err)
	}
	blanks := make([]BlankMeasurement, 0, len(b.rows))
	for i, row := range b.rows {
		zym, err := ParseDecimal(cellAt(row, 2))
		if err != nil {
			return nil, fmt.Errorf("%s row %d zymunit: %w", BlankBlock, b.rowBase+i, err)
		}
		blanks = append(blanks, BlankMeasurement{
			WellID:   cellAt(row, 0),
			Zymunit:  zym,
			Excluded: ParseExcluded(cellAt(row, 3)),
		})
	}
	return blanks, nil
}

func parseWells(rows [][]string) ([]WellMeasure, error) {
	b, err := scanBlock(rows, MeasureBlock, wellHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MeasureBlock, err)
	}
	wells := make([]WellMeasure, 0, len(b.rows))
	for i, row := range b.rows {
		v, err := ParseDecimal(cellAt(row, 1))
		if err != nil {
			return nil, fmt.Errorf("%s row %d value: %w", MeasureBlock, b.rowBase+i, err)
		}
		w := WellMeasure{WellID: cellAt(row, 0), Value: v}
		if raw := cellAt(row, 2); raw != "" {
			d, err := ParseDecimal(raw)
			if err != nil {
				return nil, fmt.Errorf("%s row %d diameter: %w", MeasureBlock, b.rowBase+i, err)
			}
			w.Diameter, w.HasDiameter = d, true
		}
		wells = append(wells, w)
	}
	return wells, nil
}

// ZoneCount returns the number of sheets, one per zone.
func (w *WellResults) ZoneCount() int {
	return len(w.Sheets)
}

// SheetNames returns the sheet names in workbook order.
func (w *WellResults) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// SheetIndex returns the zone index of the sheet with the given name.
func (w *WellResults) SheetIndex(name string) (int, bool) {
	for i, s := range w.Sheets {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (w *WellResults) sheet(zone int) (*Sheet, error) {
	if zone < 0 || zone >= len(w.Sheets) {
		return nil, apperr.Newf(apperr.KindSchemaMismatch, component, "zone %d out of range (%d zones)", zone+1, len(w.Sheets)).InZone(zone + 1)
	}
	return &w.Sheets[zone], nil
}

func zoneError(err error, zone int) error {
	kind := apperr.KindParseError
	if errors.Is(err, errMissingSection) || errors.Is(err, errMissingHeader) {
		kind = apperr.KindSchemaMismatch
	}
	return apperr.Wrap(err, kind, component, "sheet block unreadable").InZone(zone + 1)
}

// Calibration returns the calibration curve of a zone.
func (w *WellResults) Calibration(zone int) ([]CalibrationPoint, error) {
	s, err := w.sheet(zone)
	if err != nil {
		return nil, err
	}
	if s.CalibrationErr != nil {
		return nil, zoneError(s.CalibrationErr, zone)
	}
	return s.Calibration, nil
}

// ActivityRange returns the activity sequence of a zone's calibration curve.
func (w *WellResults) ActivityRange(zone int) ([]float64, error) {
	points, err := w.Calibration(zone)
	if err != nil {
		return nil, err
	}
	acts := make([]float64, len(points))
	for i, p := range points {
		acts[i] = p.Activity
	}
	return acts, nil
}

// Blanks returns every blank row of a zone, excluded ones included.
func (w *WellResults) Blanks(zone int) ([]BlankMeasurement, error) {
	s, err := w.sheet(zone)
	if err != nil {
		return nil, err
	}
	if s.BlanksErr != nil {
		return nil, zoneError(s.BlanksErr, zone)
	}
	return s.Blanks, nil
}

// ValidBlanks returns the zymunit values of the non-excluded blanks of a zone.
// Fewer than MinValidBlanks values is an InsufficientData error; the values
// found are still returned.
func (w *WellResults) ValidBlanks(zone int) ([]float64, error) {
	blanks, err := w.Blanks(zone)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(blanks))
	for _, b := range blanks {
		if !b.Excluded {
			values = append(values, b.Zymunit)
		}
	}
	if len(values) < MinValidBlanks {
		return values, apperr.Newf(apperr.KindInsufficientData, component,
			"%d valid blank(s), at least %d required", len(values), MinValidBlanks).InZone(zone + 1)
	}
	return values, nil
}

// Wells returns the per-well readings of a zone.
func (w *WellResults) Wells(zone int) ([]WellMeasure, error) {
	s, err := w.sheet(zone)
	if err != nil {
		return nil, err
	}
	if s.WellsErr != nil {
		return nil, zoneError(s.WellsErr, zone)
	}
	return s.Wells, nil
}
