// pkg/report/report.go
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foerderkatalog/pipeline/pkg/model"
)

// Documents is the complete set of report documents produced by one
// pipeline run.
type Documents struct {
	Ministry      *MinistryFunding
	Geographic    *GeographicDistribution
	Temporal      *TemporalTrends
	Recipients    *TopRecipients
	Topics        *TopicAnalysis
	Duration      *DurationAnalysis
	FundingTypes  *FundingTypes
	Sponsors      *SponsorAnalysis
	JointProjects *JointProjects
	Summary       *SummaryStats
}

// Files maps output file names to their document payloads.
func (d *Documents) Files() map[string]interface{} {
	return map[string]interface{}{
		"ministry_funding.json":          d.Ministry,
		"geographic_distribution.json":   d.Geographic,
		"temporal_trends.json":           d.Temporal,
		"top_recipients.json":            d.Recipients,
		"topic_analysis.json":            d.Topics,
		"duration_analysis.json":         d.Duration,
		"funding_types.json":             d.FundingTypes,
		"projekttraeger.json":            d.Sponsors,
		"joint_projects.json":            d.JointProjects,
		"summary_stats.json":             d.Summary,
	}
}

// Assembler runs every report builder against one frozen record set.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(logger *zap.Logger) (*Assembler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Assembler{logger: logger}, nil
}

// Build runs all report builders. Every builder is a pure function of the
// record set; builders degrade on absent values and never fail, so Build
// always returns a complete document set for a loaded record set.
func (a *Assembler) Build(set *model.RecordSet) *Documents {
	a.logger.Info("Building reports", zap.Int("records", set.Len()))

	docs := &Documents{}
	docs.Ministry = BuildMinistryFunding(set)
	a.logger.Info("Built ministry funding report",
		zap.Int("ministries", len(docs.Ministry.Ministries)))

	docs.Geographic = BuildGeographicDistribution(set)
	a.logger.Info("Built geographic distribution report",
		zap.Int("states", len(docs.Geographic.States)),
		zap.Int("topCities", len(docs.Geographic.TopCities)))

	docs.Temporal = BuildTemporalTrends(set)
	a.logger.Info("Built temporal trends report",
		zap.Int("years", len(docs.Temporal.YearlyTotals)))

	docs.Recipients = BuildTopRecipients(set)
	a.logger.Info("Built top recipients report",
		zap.Int("uniqueRecipients", docs.Recipients.UniqueRecipients))

	docs.Topics = BuildTopicAnalysis(set)
	a.logger.Info("Built topic analysis report",
		zap.Int("classifications", len(docs.Topics.Classifications)),
		zap.Int("keywords", len(docs.Topics.Keywords)))

	docs.Duration = BuildDurationAnalysis(set)
	a.logger.Info("Built duration analysis report",
		zap.Int("analyzed", docs.Duration.OverallStats.TotalAnalyzed))

	docs.FundingTypes = BuildFundingTypes(set)
	docs.Sponsors = BuildSponsorAnalysis(set)
	docs.JointProjects = BuildJointProjects(set)

	docs.Summary = BuildSummaryStats(set, docs.Ministry, docs.Geographic, docs.Recipients)
	a.logger.Info("Built cross-report summary")

	return docs
}

// WriteAll writes every document as indented JSON under dir. Documents are
// already fully built in memory before the first write, so a failing run
// never leaves a partial report set behind a successful exit.
func (a *Assembler) WriteAll(docs *Documents, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	for name, doc := range docs.Files() {
		if err := WriteDocument(filepath.Join(dir, name), doc); err != nil {
			return err
		}
		a.logger.Info("Wrote report document", zap.String("file", name))
	}
	return nil
}

// WriteDocument marshals one document to indented JSON at path.
func WriteDocument(path string, doc interface{}) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
