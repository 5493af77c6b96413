// pkg/validate/validate.go
package validate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
	"github.com/foerderkatalog/pipeline/pkg/report"
)

// Severity classifies a finding. Errors are hard mismatches on reported
// totals or counts; warnings cover discrepancies the reports produce on
// purpose, or soft expectations about the data itself.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one failed check.
type Finding struct {
	Check    string   `json:"check"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

// Report is the validation output written alongside the report documents.
type Report struct {
	GeneratedAt           string                 `json:"generated_at"`
	Passed                bool                   `json:"passed"`
	ChecksRun             int                    `json:"checks_run"`
	Errors                []Finding              `json:"errors"`
	Warnings              []Finding              `json:"warnings"`
	AcceptedDiscrepancies []AcceptedDiscrepancy  `json:"accepted_discrepancies"`
}

// AcceptedDiscrepancy documents a known, intentional gap between a report
// document and the raw record set.
type AcceptedDiscrepancy struct {
	Check  string `json:"check"`
	Reason string `json:"reason"`
}

// acceptedDiscrepancies enumerates every undercount the reports make by
// design. Anything on this list is never escalated to an error; anything
// off it is. Changing report behavior means changing this list in the same
// commit.
var acceptedDiscrepancies = []AcceptedDiscrepancy{
	{
		Check:  "top_recipients",
		Reason: "top-N truncation: only the 50 largest recipients per ranking are listed",
	},
	{
		Check:  "top_cities",
		Reason: "top-N truncation: only the 30 largest city/state pairs are listed",
	},
	{
		Check:  "projekttraeger",
		Reason: "top-N truncation: only the 20 largest sponsors and 30 largest sponsor/ministry pairs are listed",
	},
	{
		Check:  "joint_projects",
		Reason: "top-N truncation: only the 30 largest joint projects are listed",
	},
	{
		Check:  "classifications",
		Reason: "top-N truncation: only the 50 largest classification codes are listed",
	},
	{
		Check:  "state_funding",
		Reason: "category exclusion: records without a state value stay out of the per-state breakdown",
	},
	{
		Check:  "funding_types",
		Reason: "category exclusion: records without a Förderart or Förderprofil value stay out of the respective breakdown",
	},
	{
		Check:  "projekttraeger",
		Reason: "category exclusion: records without a sponsor code stay out of the sponsor breakdown",
	},
	{
		Check:  "temporal_trends",
		Reason: "date filter: records without a plausible start date (1980-2030) stay out of every temporal aggregate",
	},
	{
		Check:  "duration_analysis",
		Reason: "date filter: only durations strictly between 0 and 360 months are analysed",
	},
}

// Monetary sums must agree to within this relative percentage; counts must
// agree exactly.
const monetaryTolerancePct = 0.01

const decadeShareTolerance = 0.1

// Checker recomputes report aggregates straight from the record set and
// compares them against the built documents.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a new Checker.
func NewChecker(logger *zap.Logger) (*Checker, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Checker{logger: logger}, nil
}

// Run validates a document set against the record set it was built from.
// Findings never block anything; the caller decides what to do with a
// failed report.
func (c *Checker) Run(set *model.RecordSet, docs *report.Documents) *Report {
	r := &Report{
		GeneratedAt:           time.Now().Format("2006-01-02T15:04:05.000000"),
		Errors:                []Finding{},
		Warnings:              []Finding{},
		AcceptedDiscrepancies: acceptedDiscrepancies,
	}

	c.checkTotals(r, set, docs)
	c.checkMinistries(r, set, docs)
	c.checkRecipients(r, set, docs)
	c.checkStates(r, set, docs)
	c.checkSponsors(r, set, docs)
	c.checkTemporal(r, set, docs)
	c.checkDuration(r, set, docs)
	c.checkJointProjects(r, set, docs)
	c.checkInternalConsistency(r, docs)

	r.Passed = len(r.Errors) == 0
	c.logger.Info("Validation complete",
		zap.Bool("passed", r.Passed),
		zap.Int("checksRun", r.ChecksRun),
		zap.Int("errors", len(r.Errors)),
		zap.Int("warnings", len(r.Warnings)))
	return r
}

func (r *Report) add(f Finding) {
	if f.Severity == SeverityError {
		r.Errors = append(r.Errors, f)
	} else {
		r.Warnings = append(r.Warnings, f)
	}
}

// checkMoney records an error when two monetary sums diverge beyond the
// relative tolerance.
func (c *Checker) checkMoney(r *Report, check string, expected, got float64, severity Severity) {
	r.ChecksRun++
	if relativeDiffPct(expected, got) <= monetaryTolerancePct {
		return
	}
	r.add(Finding{
		Check:    check,
		Detail:   fmt.Sprintf("expected %.2f, document holds %.2f (%.4f%% off)", expected, got, relativeDiffPct(expected, got)),
		Severity: severity,
	})
}

func (c *Checker) checkCount(r *Report, check string, expected, got int, severity Severity) {
	r.ChecksRun++
	if expected == got {
		return
	}
	r.add(Finding{
		Check:    check,
		Detail:   fmt.Sprintf("expected %d, document holds %d", expected, got),
		Severity: severity,
	})
}

func (c *Checker) checkTotals(r *Report, set *model.RecordSet, docs *report.Documents) {
	c.checkMoney(r, "total_funding", set.TotalFunding(), docs.Summary.TotalFunding, SeverityError)
	c.checkCount(r, "total_projects", set.Len(), docs.Summary.TotalProjects, SeverityError)

	unique := make(map[string]struct{})
	for _, rec := range set.Records() {
		if rec.Recipient != "" {
			unique[rec.Recipient] = struct{}{}
		}
	}
	c.checkCount(r, "unique_recipients", len(unique), docs.Summary.UniqueRecipients, SeverityWarning)
}

func (c *Checker) checkMinistries(r *Report, set *model.RecordSet, docs *report.Documents) {
	groups := aggregate.GroupBy(set.Records(), func(rec *model.FundingRecord) string {
		return rec.Ministry
	}, aggregate.FundingAmount)

	byCode := make(map[string]report.MinistryEntry, len(docs.Ministry.Ministries))
	for _, m := range docs.Ministry.Ministries {
		byCode[m.Code] = m
	}
	for _, g := range groups {
		entry := byCode[g.Key]
		c.checkMoney(r, "ministry_funding:"+g.Key, g.Sum, entry.TotalFunding, SeverityError)
		c.checkCount(r, "ministry_projects:"+g.Key, g.Count, entry.ProjectCount, SeverityError)
	}
}

func (c *Checker) checkRecipients(r *Report, set *model.RecordSet, docs *report.Documents) {
	named := aggregate.Filter(set.Records(), func(rec *model.FundingRecord) bool {
		return rec.Recipient != ""
	})
	groups := aggregate.GroupBy(named, func(rec *model.FundingRecord) string {
		return rec.Recipient
	}, aggregate.FundingAmount)
	top := aggregate.TopN(groups, 5, aggregate.BySum)

	byName := make(map[string]float64)
	for _, e := range docs.Recipients.TopByFunding {
		byName[e.Name] = e.TotalFunding
	}
	for _, g := range top {
		c.checkMoney(r, "top_recipient:"+g.Key, g.Sum, byName[g.Key], SeverityWarning)
	}
}

func (c *Checker) checkStates(r *Report, set *model.RecordSet, docs *report.Documents) {
	domestic := aggregate.Filter(set.Records(), func(rec *model.FundingRecord) bool {
		return rec.Country == "Deutschland" && rec.State != ""
	})
	groups := aggregate.GroupBy(domestic, func(rec *model.FundingRecord) string {
		return rec.State
	}, aggregate.FundingAmount)

	byName := make(map[string]float64)
	for _, s := range docs.Geographic.States {
		byName[s.Name] = s.TotalFunding
	}
	for _, g := range aggregate.TopN(groups, 5, aggregate.BySum) {
		c.checkMoney(r, "state_funding:"+g.Key, g.Sum, byName[g.Key], SeverityError)
	}
}

func (c *Checker) checkSponsors(r *Report, set *model.RecordSet, docs *report.Documents) {
	sponsored := aggregate.Filter(set.Records(), func(rec *model.FundingRecord) bool {
		return rec.Sponsor != ""
	})
	groups := aggregate.GroupBy(sponsored, func(rec *model.FundingRecord) string {
		return rec.Sponsor
	}, aggregate.FundingAmount)

	byCode := make(map[string]float64)
	for _, s := range docs.Sponsors.Sponsors {
		byCode[s.Code] = s.TotalFunding
	}
	for _, g := range aggregate.TopN(groups, 3, aggregate.BySum) {
		c.checkMoney(r, "projekttraeger:"+g.Key, g.Sum, byCode[g.Key], SeverityWarning)
	}
}

func (c *Checker) checkTemporal(r *Report, set *model.RecordSet, docs *report.Documents) {
	dated := aggregate.Filter(set.Records(), func(rec *model.FundingRecord) bool {
		return rec.HasStartDate && rec.StartYear >= 1980 && rec.StartYear <= 2030
	})

	var yearlyProjects int
	var yearlyFunding float64
	for _, y := range docs.Temporal.YearlyTotals {
		yearlyProjects += y.ProjectCount
		yearlyFunding += y.TotalFunding
	}
	c.checkCount(r, "temporal_trends:yearly_project_sum", len(dated), yearlyProjects, SeverityError)

	var datedFunding float64
	for i := range dated {
		datedFunding += dated[i].FundingAmount
	}
	c.checkMoney(r, "temporal_trends:yearly_funding_sum", datedFunding, yearlyFunding, SeverityError)

	var monthlyFunding float64
	var monthlyProjects int
	for _, m := range docs.Temporal.MonthlyDistribution {
		monthlyFunding += m.TotalFunding
		monthlyProjects += m.ProjectCount
	}
	c.checkMoney(r, "temporal_trends:monthly_funding_sum", datedFunding, monthlyFunding, SeverityError)
	c.checkCount(r, "temporal_trends:monthly_project_sum", len(dated), monthlyProjects, SeverityError)
}

func (c *Checker) checkDuration(r *Report, set *model.RecordSet, docs *report.Documents) {
	valid := aggregate.Filter(set.Records(), func(rec *model.FundingRecord) bool {
		return rec.HasDurationMonths && rec.DurationMonths > 0 && rec.DurationMonths < 360
	})
	c.checkCount(r, "duration_analysis:total_analyzed", len(valid), docs.Duration.OverallStats.TotalAnalyzed, SeverityError)

	var binned int
	for _, band := range docs.Duration.Distribution {
		binned += band.Count
	}
	c.checkCount(r, "duration_analysis:distribution_sum", len(valid), binned, SeverityError)
}

func (c *Checker) checkJointProjects(r *Report, set *model.RecordSet, docs *report.Documents) {
	joint := docs.JointProjects.Summary.JointProjectCount
	individual := docs.JointProjects.Summary.IndividualProjectCount
	c.checkCount(r, "joint_projects:partition", set.Len(), joint+individual, SeverityError)
	c.checkMoney(r, "joint_projects:funding_partition", set.TotalFunding(),
		docs.JointProjects.Summary.JointFunding+docs.JointProjects.Summary.IndividualFunding, SeverityError)
}

func (c *Checker) checkInternalConsistency(r *Report, docs *report.Documents) {
	var ministrySum float64
	for _, m := range docs.Ministry.Ministries {
		ministrySum += m.TotalFunding
	}
	c.checkMoney(r, "internal:ministry_sum_vs_total", docs.Summary.TotalFunding, ministrySum, SeverityError)

	for decade, entries := range docs.Temporal.DecadeMinistryShare {
		r.ChecksRun++
		var shareSum float64
		for _, e := range entries {
			shareSum += e.SharePct
		}
		if math.Abs(shareSum-100) > decadeShareTolerance {
			r.add(Finding{
				Check:    "internal:decade_share:" + decade,
				Detail:   fmt.Sprintf("decade shares sum to %.3f%%, expected 100%% ± %.1f", shareSum, decadeShareTolerance),
				Severity: SeverityWarning,
			})
		}
	}
}

func relativeDiffPct(expected, got float64) float64 {
	if expected == 0 {
		if got == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(expected-got) / math.Abs(expected) * 100
}
