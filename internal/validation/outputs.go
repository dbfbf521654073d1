package validation

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/output"
	"github.com/user/plate_validator_go/internal/report"
)

// SummaryFile is the YAML dump of the whole result inside the results folder.
const SummaryFile = "validation_summary.yaml"

// ResultsDir returns the folder receiving the outputs of a run on measuredDir.
func (o *Orchestrator) ResultsDir(measuredDir string) string {
	return filepath.Join(measuredDir, o.cfg.Output.ResultsDir)
}

func (r *run) write(path string, data []byte) {
	if err := r.o.writer.WriteFile(path, data); err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindWriteError, "write "+filepath.Base(path)))
		return
	}
	r.res.Outputs = append(r.res.Outputs, path)
	r.logger.Debug("wrote output", zap.String("path", path), zap.Int("bytes", len(data)))
}

func (r *run) writeCSV(path string, render func() ([]byte, error)) {
	data, err := render()
	if err != nil {
		r.res.addErrors(apperr.Wrap(err, apperr.KindWriteError, component, "render "+filepath.Base(path)))
		return
	}
	r.write(path, data)
}

// writeOutputs lays the tables and graphs out under the results folder.
// Outputs are only written when the measured folder exists.
func (r *run) writeOutputs() {
	if !dirExists(r.req.MeasuredDir) {
		return
	}
	cfg := r.o.cfg.Output
	dir := r.o.ResultsDir(r.req.MeasuredDir)
	if err := output.EnsureDir(dir); err != nil {
		r.res.addErrors(asAppErr(err, apperr.KindWriteError, "results folder"))
		return
	}
	r.res.OutputDir = dir
	graphs := filepath.Join(dir, cfg.GraphsDir)

	if r.haveReaders() {
		r.writeCSV(filepath.Join(dir, report.WellResultsFile), func() ([]byte, error) {
			return report.WellResultsCSV(r.res.WellResults)
		})
		r.writeCSV(filepath.Join(dir, report.LodLoqFile), func() ([]byte, error) {
			return report.LodLoqCSV(r.res.LodLoq)
		})
	}

	if len(r.res.WellResults) > 0 {
		img, err := report.CreateCalibrationHeatmap(r.res.WellResults)
		if err != nil {
			r.res.addWarnings(apperr.Wrap(err, apperr.KindWriteError, component, "calibration heatmap"))
		} else {
			r.write(filepath.Join(graphs, report.HeatmapFile), img)
		}
	}

	if reg := r.res.Regression; reg != nil {
		plots, err := report.RegressionPlots(reg)
		if err != nil {
			r.res.addWarnings(apperr.Wrap(err, apperr.KindWriteError, component, "regression plots"))
		}
		names := make([]string, 0, len(plots))
		for name := range plots {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(graphs, name+".png")
			r.write(path, plots[name])
			if name == reg.Common().Name {
				reg.Common().GraphPath = path
			}
		}
	}

	if r.res.Enzymatic != nil {
		r.writeCSV(filepath.Join(dir, cfg.EnzymoDir, report.EnzymaticFile), func() ([]byte, error) {
			return report.EnzymaticCSV(r.res.Enzymatic)
		})
	}

	r.writeSummary(filepath.Join(dir, SummaryFile))
}

// writeSummary dumps the result, listing the summary itself among the outputs.
func (r *run) writeSummary(path string) {
	r.res.FinishedAt = r.o.now()
	r.res.Outputs = append(r.res.Outputs, path)
	data, err := yaml.Marshal(r.res)
	if err == nil {
		err = r.o.writer.WriteFile(path, data)
	}
	if err != nil {
		r.res.Outputs = r.res.Outputs[:len(r.res.Outputs)-1]
		r.res.addErrors(asAppErr(err, apperr.KindWriteError, "write "+SummaryFile))
	}
}
