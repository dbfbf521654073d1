package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/plate_validator_go/internal/analysis"
	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/config"
	"github.com/user/plate_validator_go/internal/loganalysis"
	"github.com/user/plate_validator_go/internal/logging"
	"github.com/user/plate_validator_go/internal/output"
	"github.com/user/plate_validator_go/internal/parser"
)

const (
	component = "orchestrator"

	// EnzymaticSubdir holds the routine spreadsheets of the enzymatic comparison.
	EnzymaticSubdir = "enzymo_routine"
)

// Orchestrator runs validation requests. It holds no per-run state, so one
// Orchestrator may serve concurrent runs on different directories.
type Orchestrator struct {
	cfg    *config.Config
	logger *zap.Logger
	writer *output.Writer
	now    func() time.Time
}

// New returns an Orchestrator. A nil cfg uses the defaults.
func New(cfg *config.Config, logger *zap.Logger) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger = logging.OrNop(logger)
	return &Orchestrator{
		cfg:    cfg,
		logger: logger,
		writer: output.NewWriter(cfg.Write.Attempts, cfg.GetBackoff(), logger),
		now:    time.Now,
	}
}

// run carries the state of one Run call.
type run struct {
	o        *Orchestrator
	req      Request
	res      *Result
	logger   *zap.Logger
	measured *parser.WellResults
	ref      *parser.WellResults
}

func (r *run) progress(percent int, msg string) {
	r.logger.Debug("progress", zap.Int("percent", percent), zap.String("step", msg))
	if r.req.Progress != nil {
		r.req.Progress(percent, msg)
	}
}

// canceled records ctx's error once the context is done.
func (r *run) canceled(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		r.res.addErrors(apperr.Wrap(err, apperr.KindCanceled, component, "run canceled"))
		r.logger.Warn("validation canceled", zap.Error(err))
		return true
	}
	return false
}

// asAppErr keeps an *apperr.Error as raised by its component and wraps
// anything else under the orchestrator.
func asAppErr(err error, kind apperr.Kind, msg string) *apperr.Error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Wrap(err, kind, component, msg)
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Run executes every step of the validation. Step failures are recorded in
// the result and never stop the following steps. The returned error is set
// only when neither input directory exists. A canceled context stops the run
// at the next step boundary with the partial result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	measuredOK, referenceOK := dirExists(req.MeasuredDir), dirExists(req.ReferenceDir)
	if !measuredOK && !referenceOK {
		return nil, apperr.Newf(apperr.KindMissingFile, component,
			"neither %q nor %q is a directory", req.MeasuredDir, req.ReferenceDir)
	}

	res := &Result{
		RunID:        uuid.NewString(),
		MeasuredDir:  req.MeasuredDir,
		ReferenceDir: req.ReferenceDir,
		PlateType:    req.PlateType,
		Options:      req.Options,
		StartedAt:    o.now(),
	}
	r := &run{
		o:      o,
		req:    req,
		res:    res,
		logger: o.logger.With(zap.String("run_id", res.RunID)),
	}
	r.logger.Info("validation started",
		zap.String("measured", req.MeasuredDir),
		zap.String("reference", req.ReferenceDir),
		zap.String("plate_type", req.PlateType),
		zap.Bool("compare_to_reference", req.Options.CompareToReference),
		zap.Bool("compare_enzymatic", req.Options.CompareEnzymaticToReference))
	defer func() {
		res.FinishedAt = o.now()
		r.logger.Info("validation finished",
			zap.Int("errors", len(res.Errors)),
			zap.Int("warnings", len(res.Warnings)),
			zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	}()

	steps := []struct {
		percent int
		label   string
		fn      func()
	}{
		{10, "loading WellResults spreadsheets", r.loadReaders},
		{25, "comparing calibration", r.compareCalibration},
		{40, "comparing detection limits", r.compareDetectionLimits},
		{55, "comparing against reference regression", r.compareRegression},
		{70, "comparing enzymatic routine", r.compareEnzymatic},
		{85, "analyzing hardware log", r.analyzeLog},
		{95, "writing results", r.writeOutputs},
	}
	for _, s := range steps {
		if r.canceled(ctx) {
			return res, nil
		}
		s.fn()
		r.progress(s.percent, s.label)
	}
	r.progress(100, "done")
	return res, nil
}

func (r *run) loadReaders() {
	load := func(dir, side string) (*parser.WellResults, string) {
		if !dirExists(dir) {
			r.res.addErrors(apperr.Newf(apperr.KindMissingFile, component, "%s folder %q not found", side, dir))
			return nil, ""
		}
		wr, err := parser.OpenDir(dir)
		if err != nil {
			r.res.addErrors(asAppErr(err, apperr.KindMissingFile, side+" WellResults"))
			return nil, ""
		}
		r.logger.Debug("loaded WellResults", zap.String("side", side), zap.String("path", wr.Path), zap.Int("zones", wr.ZoneCount()))
		return wr, wr.Path
	}
	r.measured, r.res.MeasuredFile = load(r.req.MeasuredDir, "measured")
	r.ref, r.res.ReferenceFile = load(r.req.ReferenceDir, "reference")
}

func (r *run) haveReaders() bool {
	return r.measured != nil && r.ref != nil
}

func (r *run) compareCalibration() {
	if !r.haveReaders() {
		return
	}
	records, errs := analysis.CompareCalibration(r.measured, r.ref)
	r.res.WellResults = records
	r.res.addErrors(errs...)
}

func (r *run) compareDetectionLimits() {
	if !r.haveReaders() {
		return
	}
	records, errs := analysis.CompareDetectionLimits(r.measured, r.ref)
	r.res.LodLoq = records
	r.res.addErrors(errs...)
}

func (r *run) compareRegression() {
	if !r.req.Options.CompareToReference || !r.haveReaders() {
		return
	}
	variant, err := analysis.VariantForPlate(r.req.PlateType)
	if err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindSchemaMismatch, "regression"))
		return
	}
	name := "regression_" + string(variant)
	report, errs, warnings := analysis.CompareRegression(name, variant, r.measured, r.ref)
	r.res.Regression = report
	r.res.addErrors(errs...)
	r.res.addWarnings(warnings...)
}

// enzymaticSource returns the routine spreadsheet of a side: the one in the
// enzymo_routine subfolder when present, else the already loaded one.
func (r *run) enzymaticSource(dir string, loaded *parser.WellResults) (*parser.WellResults, error) {
	sub := filepath.Join(dir, EnzymaticSubdir)
	if !dirExists(sub) {
		if loaded == nil {
			return nil, apperr.Newf(apperr.KindMissingFile, component, "no routine spreadsheet for %s", dir)
		}
		return loaded, nil
	}
	return parser.OpenDir(sub)
}

func (r *run) compareEnzymatic() {
	if !r.req.Options.CompareEnzymaticToReference {
		return
	}
	measured, err := r.enzymaticSource(r.req.MeasuredDir, r.measured)
	if err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindMissingFile, "measured enzymatic routine"))
		return
	}
	ref, err := r.enzymaticSource(r.req.ReferenceDir, r.ref)
	if err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindMissingFile, "reference enzymatic routine"))
		return
	}
	cmp, errs := analysis.CompareEnzymatic(measured, ref)
	for _, e := range errs {
		r.logger.Warn("enzymatic sheet skipped", zap.Error(e))
	}
	r.res.Enzymatic = cmp
	r.res.addErrors(errs...)
}

func (r *run) analyzeLog() {
	path, err := loganalysis.FindLog(r.req.MeasuredDir, r.o.cfg.Log.Pattern)
	if err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindMissingFile, "hardware log"))
		return
	}
	a, errs, warnings := loganalysis.AnalyzeFile(path)
	r.res.LogAnalysis = a
	r.res.addErrors(errs...)
	r.res.addWarnings(warnings...)
	if a != nil {
		r.logger.Debug("log analyzed",
			zap.String("path", path),
			zap.String("strategy", string(a.Strategy)),
			zap.Int("measurements", a.TotalMeasurements))
	}
}
