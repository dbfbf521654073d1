package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"sort"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/plate_validator_go/internal/analysis"
	"github.com/user/plate_validator_go/internal/loganalysis"
)

const (
	pdfPageWidthLandscape  = 297.0 // A4 landscape, mm
	pdfPageHeightLandscape = 210.0
	pdfMargin              = 12.7
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// CheckLine is one acceptance check shown in the summary table.
type CheckLine struct {
	Name   string
	Detail string
	Pass   bool
}

// Document is everything the validation summary PDF shows.
type Document struct {
	Title        string
	RunID        string
	GeneratedAt  time.Time
	MeasuredDir  string
	ReferenceDir string
	PlateType    string
	Passed       bool
	Checks       []CheckLine
	WellRecords  []analysis.WellRecord
	LodLoq       []analysis.LodLoqRecord
	Regression   *analysis.RegressionResult
	Log          *loganalysis.Analysis
	Errors       []string
	Warnings     []string
	Images       map[string][]byte // PNG bytes keyed by caption
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 13)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["pass"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 140, 0)
	}
	s.styles["fail"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(200, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.currentY += height
	if s.currentY > s.pageHeight {
		s.newPage()
	}
}

// table draws a bordered table; red reports whether a cell is rendered in the
// alert style.
func (s *pdfStyler) table(headers []string, widthsRel []float64, rows [][]string, red func(row, col int) bool) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}
	drawHeader := func() {
		x := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	drawHeader()
	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			drawHeader()
		}
		x := pdfMargin
		for c, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			if red != nil && red(r, c) {
				s.applyStyle("tableCellRed")
			} else {
				s.applyStyle("tableCell")
			}
			s.pdf.CellFormat(widths[c], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			x += widths[c]
		}
		s.currentY += s.lineHeight
	}
	s.addSpacer(4)
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width, height float64, caption string) {
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	s.pdf.Image(imageName, pdfMargin+(pdfContentWidth-width)/2, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

// fitImage scales a PNG into the box while keeping its aspect ratio.
func fitImage(png []byte, maxW, maxH float64) (float64, float64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return maxH, maxH
	}
	ratio := float64(cfg.Height) / float64(cfg.Width)
	w := maxW
	if w*ratio > maxH {
		w = maxH / ratio
	}
	return w, w * ratio
}

func fmt4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func yesNo(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// RenderPDF lays out the validation summary and returns the PDF bytes.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := doc.Title
	if title == "" {
		title = "Plate reader deployment validation"
	}
	styler.writeParagraph(tr(title), "h1", "C")
	styler.addSpacer(3)
	styler.writeParagraph(tr(fmt.Sprintf("Run %s - %s", doc.RunID, doc.GeneratedAt.Format("02/01/2006 15:04:05"))), "normal", "L")
	styler.writeParagraph(tr(fmt.Sprintf("Measured: %s", doc.MeasuredDir)), "normal", "L")
	styler.writeParagraph(tr(fmt.Sprintf("Reference: %s", doc.ReferenceDir)), "normal", "L")
	styler.writeParagraph(tr(fmt.Sprintf("Plate type: %s", doc.PlateType)), "normal", "L")
	styler.addSpacer(3)
	if doc.Passed {
		styler.writeParagraph("VALIDATION PASSED", "pass", "L")
	} else {
		styler.writeParagraph("VALIDATION FAILED", "fail", "L")
	}
	styler.addSpacer(3)

	styler.writeParagraph("Acceptance checks", "h2", "L")
	if len(doc.Checks) > 0 {
		rows := make([][]string, len(doc.Checks))
		for i, c := range doc.Checks {
			rows[i] = []string{tr(c.Name), tr(c.Detail), yesNo(c.Pass)}
		}
		styler.table([]string{"Check", "Detail", "Result"}, []float64{0.3, 0.55, 0.15}, rows,
			func(r, c int) bool { return c == 2 && !doc.Checks[r].Pass })
	}

	var outOfTolerance [][]string
	for _, r := range doc.WellRecords {
		if !r.Valid {
			outOfTolerance = append(outOfTolerance, []string{
				strconv.Itoa(r.Zone), fmt4(r.Activity), fmt4(r.Measured), fmt4(r.Reference), fmt4(r.Diff),
			})
		}
	}
	styler.writeParagraph("Calibration rows exceeding tolerance", "h2", "L")
	if len(outOfTolerance) > 0 {
		styler.table([]string{"Zone", "Activity", "Measured", "Reference", "Diff"},
			[]float64{0.1, 0.2, 0.2, 0.25, 0.25}, outOfTolerance,
			func(_, c int) bool { return c == 4 })
	} else {
		styler.writeParagraph(fmt.Sprintf("All %d calibration rows are within tolerance.", len(doc.WellRecords)), "normal", "L")
	}

	if len(doc.LodLoq) > 0 {
		styler.writeParagraph("Detection limits", "h2", "L")
		rows := make([][]string, len(doc.LodLoq))
		for i, r := range doc.LodLoq {
			rows[i] = []string{
				strconv.Itoa(r.Zone),
				fmt4(r.LODRef), fmt4(r.LODMeas), yesNo(r.LODValid),
				fmt4(r.LOQRef), fmt4(r.LOQMeas), yesNo(r.LOQValid),
			}
		}
		styler.table([]string{"Zone", "LOD ref", "LOD meas", "LOD", "LOQ ref", "LOQ meas", "LOQ"},
			[]float64{0.1, 0.15, 0.15, 0.1, 0.15, 0.15, 0.2}, rows,
			func(r, c int) bool {
				return (c == 3 && !doc.LodLoq[r].LODValid) || (c == 6 && !doc.LodLoq[r].LOQValid)
			})
	}

	if reg := doc.Regression; reg != nil {
		styler.writeParagraph("Regression against reference", "h2", "L")
		rows := [][]string{{
			fmt4(reg.Slope), fmt4(reg.Intercept), fmt4(reg.RSquared()),
			strconv.Itoa(reg.NOutliers), fmt4(reg.DiffMean), fmt4(reg.DiffCV),
		}}
		styler.table([]string{"Slope", "Intercept", "R2", "Outliers", "Mean diff %", "CV diff %"},
			[]float64{0.16, 0.16, 0.16, 0.16, 0.18, 0.18}, rows, nil)
	}

	if lg := doc.Log; lg != nil {
		styler.writeParagraph("Acquisition log", "h2", "L")
		rows := [][]string{{
			string(lg.Strategy),
			fmt.Sprintf("%.1f", lg.DurationMinutes),
			strconv.Itoa(lg.DriftFixCount),
			strconv.Itoa(lg.AlternateRetryCount),
			fmt4(lg.MeanMetric),
			fmt.Sprintf("%d / %d", lg.DoneMeasurements, lg.TotalMeasurements),
			strconv.Itoa(lg.TotalWells),
		}}
		styler.table([]string{"Strategy", "Duration (min)", "Drift fixes", "Alt. retries", "Mean", "Done / total", "Wells"},
			[]float64{0.15, 0.15, 0.14, 0.14, 0.14, 0.14, 0.14}, rows, nil)
	}

	if len(doc.Errors) > 0 || len(doc.Warnings) > 0 {
		styler.writeParagraph("Errors and warnings", "h2", "L")
		for _, e := range doc.Errors {
			styler.writeParagraph(tr("ERROR: "+e), "tableCellRed", "L")
		}
		for _, w := range doc.Warnings {
			styler.writeParagraph(tr("warning: "+w), "tableCell", "L")
		}
	}

	if len(doc.Images) > 0 {
		styler.newPage()
		styler.writeParagraph("Graphical analysis", "h1", "C")
		styler.addSpacer(3)

		keys := make([]string, 0, len(doc.Images))
		for k := range doc.Images {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		maxHeight := pdfPageHeightLandscape - 2*pdfMargin - 30
		for i, k := range keys {
			if len(doc.Images[k]) == 0 {
				continue
			}
			if i > 0 {
				styler.newPage()
			}
			w, h := fitImage(doc.Images[k], pdfContentWidth, maxHeight)
			styler.addImage(doc.Images[k], fmt.Sprintf("img%d", i), w, h, tr(k))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
