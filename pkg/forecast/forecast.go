// pkg/forecast/forecast.go
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/foerderkatalog/pipeline/pkg/model"
)

// Config controls the forecast run. All years are calendar years.
type Config struct {
	CurrentYear       int
	HorizonYears      int
	TrainingStartYear int
	// OutlierYears are dropped from training; the pandemic spike would
	// otherwise dominate the fitted trend.
	OutlierYears  []int
	Changepoints  int
	Flexibility   float64
	IntervalWidth float64
}

// DefaultConfig returns the production forecast parameters.
func DefaultConfig(currentYear int) Config {
	return Config{
		CurrentYear:       currentYear,
		HorizonYears:      10,
		TrainingStartYear: 2000,
		OutlierYears:      []int{2020, 2021},
		Changepoints:      15,
		Flexibility:       0.5,
		IntervalWidth:     0.95,
	}
}

const (
	backtestHoldout   = 5
	minBacktestTrain  = 10
	minBacktestActual = 3
	summaryNearYears  = 5
)

// Document is the funding forecast output.
type Document struct {
	GeneratedAt          string           `json:"generated_at"`
	CurrentYear          int              `json:"current_year"`
	ForecastHorizonYears int              `json:"forecast_horizon_years"`
	HistoricalRange      HistoricalRange  `json:"historical_range"`
	Forecast             []ForecastYear   `json:"forecast"`
	Backtest             *BacktestResult  `json:"backtest"`
	Summary              ForecastSummary  `json:"summary"`
}

type HistoricalRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type ForecastYear struct {
	Year             int      `json:"year"`
	PredictedFunding float64  `json:"predicted_funding"`
	LowerBound       float64  `json:"lower_bound"`
	UpperBound       float64  `json:"upper_bound"`
	ApprovedFunding  *float64 `json:"approved_funding"`
	ApprovedProjects *int     `json:"approved_projects"`
}

type BacktestResult struct {
	BacktestYears   []BacktestYear `json:"backtest_years"`
	AverageErrorPct float64        `json:"average_error_pct"`
}

type BacktestYear struct {
	Year      int     `json:"year"`
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	ErrorPct  float64 `json:"error_pct"`
}

type ForecastSummary struct {
	TotalPredictedNext5Years float64  `json:"total_predicted_funding_next_5_years"`
	TotalApprovedFuture      float64  `json:"total_approved_funding_future"`
	ForecastVsApprovedRatio  *float64 `json:"forecast_vs_approved_ratio"`
}

// YearlyPoint is one year of the aggregated funding series.
type YearlyPoint struct {
	Year     int
	Funding  float64
	Projects int
}

// YearlySeries aggregates the record set into a funding series by start
// year, ascending. Records without a start date are skipped.
func YearlySeries(set *model.RecordSet) []YearlyPoint {
	byYear := make(map[int]*YearlyPoint)
	records := set.Records()
	for i := range records {
		r := &records[i]
		if !r.HasStartDate {
			continue
		}
		p, ok := byYear[r.StartYear]
		if !ok {
			p = &YearlyPoint{Year: r.StartYear}
			byYear[r.StartYear] = p
		}
		p.Funding += r.FundingAmount
		p.Projects++
	}
	series := make([]YearlyPoint, 0, len(byYear))
	for _, p := range byYear {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}

// Engine runs the forecast over a record set using a pluggable model.
type Engine struct {
	cfg      Config
	logger   *zap.Logger
	newModel func() (Forecaster, error)
}

// NewEngine creates an Engine that fits a fresh TrendModel per run.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.HorizonYears <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", cfg.HorizonYears)
	}
	e := &Engine{cfg: cfg, logger: logger}
	e.newModel = func() (Forecaster, error) {
		return NewTrendModel(cfg.Changepoints, cfg.Flexibility, cfg.IntervalWidth)
	}
	return e, nil
}

// WithModelFactory overrides the forecaster construction, for tests and
// alternative models.
func (e *Engine) WithModelFactory(factory func() (Forecaster, error)) *Engine {
	e.newModel = factory
	return e
}

// Run builds the funding forecast document for a record set.
func (e *Engine) Run(set *model.RecordSet) (*Document, error) {
	series := YearlySeries(set)
	if len(series) == 0 {
		return nil, errors.New("no dated records to forecast from")
	}

	historical, approved := e.splitSeries(series)
	e.logger.Info("Prepared forecast training data",
		zap.Int("trainingYears", len(historical)),
		zap.Int("approvedFutureYears", len(approved)))

	training := e.dropOutliers(historical)
	predictions, err := e.fitAndPredict(training, futureYears(e.cfg.CurrentYear, e.cfg.HorizonYears))
	if err != nil {
		return nil, fmt.Errorf("failed to fit forecast model: %w", err)
	}

	approvedByYear := make(map[int]YearlyPoint, len(approved))
	for _, p := range approved {
		approvedByYear[p.Year] = p
	}

	doc := &Document{
		GeneratedAt:          time.Now().Format("2006-01-02T15:04:05.000000"),
		CurrentYear:          e.cfg.CurrentYear,
		ForecastHorizonYears: e.cfg.HorizonYears,
		HistoricalRange: HistoricalRange{
			Start: series[0].Year,
			End:   e.cfg.CurrentYear,
		},
		Forecast: make([]ForecastYear, 0, len(predictions)),
	}
	for _, p := range predictions {
		fy := ForecastYear{
			Year:             p.Year,
			PredictedFunding: math.Max(0, p.Point),
			LowerBound:       math.Max(0, p.Lower),
			UpperBound:       math.Max(0, p.Upper),
		}
		if ap, ok := approvedByYear[p.Year]; ok {
			funding, projects := ap.Funding, ap.Projects
			fy.ApprovedFunding = &funding
			fy.ApprovedProjects = &projects
		}
		doc.Forecast = append(doc.Forecast, fy)
	}

	doc.Backtest = e.backtest(historical)
	doc.Summary = summarize(doc.Forecast)
	return doc, nil
}

// splitSeries separates the training window from already-approved
// future-dated years.
func (e *Engine) splitSeries(series []YearlyPoint) (historical, approved []YearlyPoint) {
	for _, p := range series {
		switch {
		case p.Year > e.cfg.CurrentYear:
			approved = append(approved, p)
		case p.Year >= e.cfg.TrainingStartYear:
			historical = append(historical, p)
		}
	}
	return historical, approved
}

func (e *Engine) dropOutliers(series []YearlyPoint) []YearlyPoint {
	outliers := make(map[int]struct{}, len(e.cfg.OutlierYears))
	for _, y := range e.cfg.OutlierYears {
		outliers[y] = struct{}{}
	}
	kept := make([]YearlyPoint, 0, len(series))
	for _, p := range series {
		if _, skip := outliers[p.Year]; skip {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (e *Engine) fitAndPredict(training []YearlyPoint, years []int) ([]Prediction, error) {
	m, err := e.newModel()
	if err != nil {
		return nil, err
	}
	trainYears := make([]int, len(training))
	trainValues := make([]float64, len(training))
	for i, p := range training {
		trainYears[i] = p.Year
		trainValues[i] = p.Funding
	}
	if err := m.Fit(trainYears, trainValues); err != nil {
		return nil, err
	}
	return m.Predict(years)
}

// backtest refits on data truncated five years back and scores the held-out
// years. Returns nil when the series is too short to score meaningfully.
func (e *Engine) backtest(historical []YearlyPoint) *BacktestResult {
	boundary := e.cfg.CurrentYear - backtestHoldout
	var train, actual []YearlyPoint
	for _, p := range historical {
		if p.Year <= boundary {
			train = append(train, p)
		} else {
			actual = append(actual, p)
		}
	}
	if len(train) < minBacktestTrain || len(actual) < minBacktestActual {
		e.logger.Warn("Insufficient data for forecast backtesting",
			zap.Int("trainingYears", len(train)),
			zap.Int("actualYears", len(actual)))
		return nil
	}

	years := make([]int, len(actual))
	for i, p := range actual {
		years[i] = p.Year
	}
	predictions, err := e.fitAndPredict(train, years)
	if err != nil {
		e.logger.Warn("Forecast backtest failed", zap.Error(err))
		return nil
	}

	result := &BacktestResult{BacktestYears: make([]BacktestYear, 0, len(actual))}
	var errSum float64
	for i, p := range predictions {
		observed := actual[i].Funding
		errorPct := 0.0
		if observed > 0 {
			errorPct = math.Abs(p.Point-observed) / observed * 100
		}
		errSum += errorPct
		result.BacktestYears = append(result.BacktestYears, BacktestYear{
			Year:      p.Year,
			Predicted: p.Point,
			Actual:    observed,
			ErrorPct:  errorPct,
		})
	}
	result.AverageErrorPct = errSum / float64(len(predictions))
	e.logger.Info("Forecast backtest complete",
		zap.Float64("averageErrorPct", result.AverageErrorPct))
	return result
}

func summarize(forecast []ForecastYear) ForecastSummary {
	var s ForecastSummary
	var predictedTotal float64
	for i, fy := range forecast {
		if i < summaryNearYears {
			s.TotalPredictedNext5Years += fy.PredictedFunding
		}
		predictedTotal += fy.PredictedFunding
		if fy.ApprovedFunding != nil {
			s.TotalApprovedFuture += *fy.ApprovedFunding
		}
	}
	if s.TotalApprovedFuture > 0 {
		ratio := predictedTotal / s.TotalApprovedFuture
		s.ForecastVsApprovedRatio = &ratio
	}
	return s
}

func futureYears(current, horizon int) []int {
	years := make([]int, 0, horizon)
	for y := current + 1; y <= current+horizon; y++ {
		years = append(years, y)
	}
	return years
}
