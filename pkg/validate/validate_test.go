// pkg/validate/validate_test.go
package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foerderkatalog/pipeline/pkg/model"
	"github.com/foerderkatalog/pipeline/pkg/report"
)

func sampleRecordSet() *model.RecordSet {
	start := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	}
	records := []model.FundingRecord{
		{
			FKZ: "01AB1234", Ministry: "BMBF", Country: "Deutschland",
			State: "Bayern", City: "München", Recipient: "Uni München",
			Sponsor: "PTJ", FundingAmount: 1_000_000,
			StartDate: start(2018, 1, 1), HasStartDate: true, StartYear: 2018,
			DurationMonths: 36, HasDurationMonths: true,
		},
		{
			FKZ: "02CD5678", Ministry: "BMBF", Country: "Deutschland",
			State: "Berlin", City: "Berlin", Recipient: "TU Berlin",
			Sponsor: "PT-DLR", JointProjectName: "H2Giga",
			FundingAmount: 500_000,
			StartDate:     start(2020, 6, 1), HasStartDate: true, StartYear: 2020,
			DurationMonths: 24, HasDurationMonths: true,
		},
		{
			FKZ: "03EF9012", Ministry: "BMWK", Country: "Deutschland",
			State: "Bayern", City: "Nürnberg", Recipient: "Siemens AG",
			FundingAmount: 2_000_000,
			StartDate:     start(2021, 3, 15), HasStartDate: true, StartYear: 2021,
		},
		{
			FKZ: "04GH3456", Ministry: "BMWK", Recipient: "Uni München",
			FundingAmount: 250_000,
		},
	}
	return model.NewRecordSet(records, "test.csv")
}

func buildDocs(t *testing.T, set *model.RecordSet) *report.Documents {
	t.Helper()
	assembler, err := report.NewAssembler(zap.NewNop())
	require.NoError(t, err)
	return assembler.Build(set)
}

func TestCheckerSelfConsistency(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)

	// Freshly built documents must validate cleanly against their own
	// source.
	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Greater(t, result.ChecksRun, 10)
	assert.NotEmpty(t, result.AcceptedDiscrepancies)
}

func TestCheckerDetectsTamperedTotal(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)
	docs.Summary.TotalFunding += 1_000_000

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)

	assert.False(t, result.Passed)
	checks := make([]string, 0, len(result.Errors))
	for _, f := range result.Errors {
		checks = append(checks, f.Check)
	}
	assert.Contains(t, checks, "total_funding")
	// The ministry sum no longer reconciles with the inflated total either.
	assert.Contains(t, checks, "internal:ministry_sum_vs_total")
}

func TestCheckerDetectsTamperedMinistry(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)
	docs.Ministry.Ministries[0].ProjectCount++

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)
	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Errors)
}

func TestCheckerRecipientMismatchIsWarning(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)
	docs.Recipients.TopByFunding[0].TotalFunding *= 1.5

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)

	// Recipient drift stays a warning and never fails the run on its own.
	assert.True(t, result.Passed)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, SeverityWarning, result.Warnings[0].Severity)
}

func TestCheckerFlagsBrokenDecadeShares(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)
	shares := docs.Temporal.DecadeMinistryShare["2020"]
	require.NotEmpty(t, shares)
	shares[0].SharePct += 5

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)
	found := false
	for _, w := range result.Warnings {
		if w.Check == "internal:decade_share:2020" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTolerancePermitsFloatNoise(t *testing.T) {
	set := sampleRecordSet()
	docs := buildDocs(t, set)
	// A hundredth of a percent is within the monetary tolerance.
	docs.Summary.TotalFunding *= 1.00005

	checker, err := NewChecker(zap.NewNop())
	require.NoError(t, err)

	result := checker.Run(set, docs)
	for _, f := range result.Errors {
		assert.NotEqual(t, "total_funding", f.Check)
	}
}
