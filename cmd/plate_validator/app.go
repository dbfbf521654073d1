package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/user/plate_validator_go/internal/config"
	"github.com/user/plate_validator_go/internal/output"
	"github.com/user/plate_validator_go/internal/report"
	"github.com/user/plate_validator_go/internal/validation"
	"github.com/user/plate_validator_go/internal/verdict"
)

// defaultPDF asks for the report under the results folder.
const defaultPDF = "auto"

// App runs validations for the command line and reports their progress.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewApp creates an App writing human output to out.
func NewApp(cfg *config.Config, logger *zap.Logger, out io.Writer) *App {
	return &App{cfg: cfg, logger: logger, out: out}
}

func (a *App) sendStatus(percent int, message string) {
	fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgCyan).Sprintf("[%3d%%]", percent), message)
}

// Validate runs req in the background, relaying progress until it ends, then
// evaluates the verdict and writes the PDF report when pdfPath is set.
func (a *App) Validate(ctx context.Context, req validation.Request, pdfPath string) (*validation.Result, *verdict.Verdict, error) {
	type step struct {
		percent int
		message string
	}
	steps := make(chan step, 16)
	req.Progress = func(p int, msg string) { steps <- step{p, msg} }

	orch := validation.New(a.cfg, a.logger)
	outcome := orch.RunInBackground(ctx, req)

	var result validation.Outcome
	for done := false; !done; {
		select {
		case s := <-steps:
			a.sendStatus(s.percent, s.message)
		case result = <-outcome:
			done = true
		}
	}
	for drained := false; !drained; {
		select {
		case s := <-steps:
			a.sendStatus(s.percent, s.message)
		default:
			drained = true
		}
	}
	if result.Err != nil {
		return nil, nil, result.Err
	}

	res := result.Result
	v := verdict.Evaluate(res, a.cfg.Thresholds)

	if pdfPath != "" {
		if pdfPath == defaultPDF {
			pdfPath = filepath.Join(orch.ResultsDir(res.MeasuredDir), a.cfg.Output.ReportName)
		}
		if err := a.writePDF(pdfPath, res, v); err != nil {
			a.logger.Error("pdf report failed", zap.String("path", pdfPath), zap.Error(err))
			fmt.Fprintln(a.out, color.RedString("PDF report failed: %v", err))
		} else {
			fmt.Fprintf(a.out, "PDF report written to %s\n", pdfPath)
		}
	}
	return res, v, nil
}

func (a *App) writePDF(path string, res *validation.Result, v *verdict.Verdict) error {
	data, err := report.RenderPDF(buildDocument(res, v))
	if err != nil {
		return err
	}
	w := output.NewWriter(a.cfg.Write.Attempts, a.cfg.GetBackoff(), a.logger)
	return w.WriteFile(path, data)
}

func buildDocument(res *validation.Result, v *verdict.Verdict) report.Document {
	doc := report.Document{
		RunID:        res.RunID,
		GeneratedAt:  res.FinishedAt,
		MeasuredDir:  res.MeasuredDir,
		ReferenceDir: res.ReferenceDir,
		PlateType:    res.PlateType,
		Passed:       v.Passed,
		WellRecords:  res.WellResults,
		LodLoq:       res.LodLoq,
		Log:          res.LogAnalysis,
		Images:       loadImages(res),
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}
	for _, c := range v.Checks {
		doc.Checks = append(doc.Checks, report.CheckLine{Name: c.Name, Detail: c.Detail, Pass: c.Pass})
	}
	if res.Regression != nil {
		doc.Regression = res.Regression.Common()
	}
	for _, e := range res.Errors {
		doc.Errors = append(doc.Errors, e.Error())
	}
	for _, w := range res.Warnings {
		doc.Warnings = append(doc.Warnings, w.Error())
	}
	return doc
}

// loadImages reads back the graphs the run wrote, keyed by file name.
func loadImages(res *validation.Result) map[string][]byte {
	images := make(map[string][]byte)
	for _, path := range res.Outputs {
		if !strings.EqualFold(filepath.Ext(path), ".png") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		images[strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))] = data
	}
	return images
}

// printSummary writes the human readable verdict.
func (a *App) printSummary(res *validation.Result, v *verdict.Verdict) {
	bold := color.New(color.Bold)
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Fprintln(a.out)
	bold.Fprintf(a.out, "Validation %s\n", res.RunID)
	for _, c := range v.Checks {
		mark := pass("PASS")
		if !c.Pass {
			mark = fail("FAIL")
		}
		fmt.Fprintf(a.out, "  %s  %-17s %s\n", mark, c.Name, c.Detail)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintln(a.out, color.YellowString("Warnings:"))
		for _, w := range res.Warnings {
			fmt.Fprintf(a.out, "  - %s\n", w.Error())
		}
	}
	if len(res.Errors) > 0 {
		fmt.Fprintln(a.out, color.RedString("Errors:"))
		for _, e := range res.Errors {
			fmt.Fprintf(a.out, "  - [%s] %s\n", e.Kind, e.Error())
		}
	}
	if res.OutputDir != "" {
		fmt.Fprintf(a.out, "Results in %s\n", res.OutputDir)
	}
	if v.Passed {
		fmt.Fprintln(a.out, pass("VALIDATION PASSED"))
	} else {
		fmt.Fprintln(a.out, fail("VALIDATION FAILED"))
	}
}
