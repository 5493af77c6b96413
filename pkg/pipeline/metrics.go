// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics tracks metrics for a single pipeline stage
type StageMetrics struct {
	StageName string
	StartTime time.Time
	EndTime   time.Time
	Items     int
	Err       string
}

// Duration returns the total duration of the stage
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// RunMetrics tracks metrics for one pipeline run
type RunMetrics struct {
	mu               sync.Mutex
	logger           *zap.Logger
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	Stages           map[string]*StageMetrics
	stageOrder       []string
	RecordsLoaded    int
	DocumentsWritten int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		RunID:     runID,
		StartTime: time.Now(),
		Stages:    make(map[string]*StageMetrics),
		logger:    logger,
	}
}

// StartStage begins tracking metrics for a stage
func (rm *RunMetrics) StartStage(stage string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm := &StageMetrics{StageName: stage, StartTime: time.Now()}
	rm.Stages[stage] = sm
	rm.stageOrder = append(rm.stageOrder, stage)

	if rm.logger != nil {
		rm.logger.Info("Started pipeline stage",
			zap.String("runID", rm.RunID),
			zap.String("stage", stage))
	}
}

// EndStage completes tracking metrics for a stage
func (rm *RunMetrics) EndStage(stage string, items int, err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm, ok := rm.Stages[stage]
	if !ok {
		return
	}
	sm.EndTime = time.Now()
	sm.Items = items
	if err != nil {
		sm.Err = err.Error()
	}

	if rm.logger != nil {
		rm.logger.Info("Completed pipeline stage",
			zap.String("runID", rm.RunID),
			zap.String("stage", stage),
			zap.Duration("duration", sm.Duration()),
			zap.Int("items", items),
			zap.Bool("success", err == nil))
	}
}

// Complete marks the run as complete
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.EndTime = time.Now()

	if rm.logger != nil {
		rm.logger.Info("Pipeline run completed",
			zap.String("runID", rm.RunID),
			zap.Duration("totalDuration", rm.EndTime.Sub(rm.StartTime)),
			zap.Int("recordsLoaded", rm.RecordsLoaded),
			zap.Int("documentsWritten", rm.DocumentsWritten))
	}
}

// Duration returns the total duration of the run
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// Summary renders a human-readable run summary
func (rm *RunMetrics) Summary() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	out := fmt.Sprintf("Pipeline run %s: %d records, %d documents, %s total\n",
		rm.RunID, rm.RecordsLoaded, rm.DocumentsWritten, formatDuration(rm.Duration()))
	for _, stage := range rm.stageOrder {
		sm := rm.Stages[stage]
		status := "ok"
		if sm.Err != "" {
			status = "failed: " + sm.Err
		}
		out += fmt.Sprintf("  %-10s %8s  %d items  %s\n",
			sm.StageName, formatDuration(sm.Duration()), sm.Items, status)
	}
	return out
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
