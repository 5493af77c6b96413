// pkg/pipeline/pipeline.go
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foerderkatalog/pipeline/pkg/config"
	"github.com/foerderkatalog/pipeline/pkg/forecast"
	"github.com/foerderkatalog/pipeline/pkg/loader"
	"github.com/foerderkatalog/pipeline/pkg/model"
	"github.com/foerderkatalog/pipeline/pkg/report"
	"github.com/foerderkatalog/pipeline/pkg/validate"
)

// ValidationReportFile is written next to the report documents.
const ValidationReportFile = "validation_report.json"

// ForecastFile holds the funding forecast document.
const ForecastFile = "funding_forecast.json"

// Stage names used in run metrics.
const (
	stageLoad     = "load"
	stageReports  = "reports"
	stageForecast = "forecast"
	stageWrite    = "write"
	stageValidate = "validate"
)

// Result summarizes one completed pipeline run.
type Result struct {
	RunID      string
	Records    int
	OutputDir  string
	Validation *validate.Report
	Metrics    *RunMetrics
}

// Pipeline orchestrates the full batch run: load the registry, build every
// report and the forecast in memory, write all documents, then validate the
// written aggregates against the record set.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger

	loader    *loader.Loader
	assembler *report.Assembler
	engine    *forecast.Engine
	checker   *validate.Checker
}

// New creates a Pipeline from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	ld, err := loader.NewLoader(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	ld = ld.WithStrict(cfg.StrictDecode)
	assembler, err := report.NewAssembler(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report assembler: %w", err)
	}

	fcfg := forecast.DefaultConfig(cfg.CurrentYear)
	fcfg.HorizonYears = cfg.ForecastHorizon
	fcfg.TrainingStartYear = cfg.TrainingStartYear
	if cfg.OutlierYears != nil {
		fcfg.OutlierYears = cfg.OutlierYears
	}
	engine, err := forecast.NewEngine(fcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast engine: %w", err)
	}

	checker, err := validate.NewChecker(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create checker: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		loader:    ld,
		assembler: assembler,
		engine:    engine,
		checker:   checker,
	}, nil
}

// Run executes the pipeline once. All documents are built before the first
// write; a failed run leaves no partial output set.
func (p *Pipeline) Run() (*Result, error) {
	runID := uuid.New().String()
	metrics := NewRunMetrics(runID, p.logger)
	p.logger.Info("Starting pipeline run",
		zap.String("runID", runID),
		zap.String("csvPath", p.cfg.CSVPath),
		zap.String("outputDir", p.cfg.OutputDir))

	metrics.StartStage(stageLoad)
	set, err := p.loader.Load(p.cfg.CSVPath)
	metrics.EndStage(stageLoad, setLen(set), err)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	metrics.RecordsLoaded = set.Len()

	metrics.StartStage(stageReports)
	docs := p.assembler.Build(set)
	metrics.EndStage(stageReports, len(docs.Files()), nil)

	metrics.StartStage(stageForecast)
	forecastDoc, err := p.engine.Run(set)
	metrics.EndStage(stageForecast, forecastLen(forecastDoc), err)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast: %w", err)
	}

	metrics.StartStage(stageWrite)
	written, err := p.writeAll(docs, forecastDoc)
	metrics.EndStage(stageWrite, written, err)
	if err != nil {
		return nil, err
	}
	metrics.DocumentsWritten = written

	metrics.StartStage(stageValidate)
	validation := p.checker.Run(set, docs)
	err = report.WriteDocument(filepath.Join(p.cfg.OutputDir, ValidationReportFile), validation)
	metrics.EndStage(stageValidate, validation.ChecksRun, err)
	if err != nil {
		return nil, err
	}

	metrics.Complete()
	return &Result{
		RunID:      runID,
		Records:    set.Len(),
		OutputDir:  p.cfg.OutputDir,
		Validation: validation,
		Metrics:    metrics,
	}, nil
}

// OutputFiles lists every document file a successful run produces.
func (p *Pipeline) OutputFiles() []string {
	docs := &report.Documents{}
	files := make([]string, 0, len(docs.Files())+2)
	for name := range docs.Files() {
		files = append(files, name)
	}
	return append(files, ForecastFile, ValidationReportFile)
}

func (p *Pipeline) writeAll(docs *report.Documents, forecastDoc *forecast.Document) (int, error) {
	if err := p.assembler.WriteAll(docs, p.cfg.OutputDir); err != nil {
		return 0, err
	}
	path := filepath.Join(p.cfg.OutputDir, ForecastFile)
	if err := report.WriteDocument(path, forecastDoc); err != nil {
		return len(docs.Files()), err
	}
	p.logger.Info("Wrote report document", zap.String("file", ForecastFile))
	return len(docs.Files()) + 1, nil
}

func setLen(set *model.RecordSet) int {
	if set == nil {
		return 0
	}
	return set.Len()
}

func forecastLen(doc *forecast.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Forecast)
}
