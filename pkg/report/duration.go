// pkg/report/duration.go
package report

import (
	"sort"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// DurationAnalysis describes how long funded projects run, per ministry and
// as a histogram over fixed duration bands.
type DurationAnalysis struct {
	ByMinistry   []MinistryDuration `json:"by_ministry"`
	Distribution []DurationBand     `json:"distribution"`
	OverallStats DurationStats      `json:"overall_stats"`
}

type MinistryDuration struct {
	Ministry     string  `json:"ministry"`
	MeanMonths   float64 `json:"mean_months"`
	MedianMonths float64 `json:"median_months"`
	StdMonths    float64 `json:"std_months"`
	ProjectCount int     `json:"project_count"`
}

type DurationBand struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type DurationStats struct {
	MeanMonths    float64 `json:"mean_months"`
	MedianMonths  float64 `json:"median_months"`
	TotalAnalyzed int     `json:"total_analyzed"`
}

// Durations of zero or less mean a missing or inverted date pair; thirty
// years or more means a typo in the registry.
const maxPlausibleMonths = 360

// Band lower bounds are inclusive, so a project of exactly six months falls
// into the 6-12 band.
var (
	durationBounds = []float64{0, 6, 12, 24, 36, 60, 120, 360}
	durationLabels = []string{
		"<6 months", "6-12 months", "1-2 years", "2-3 years",
		"3-5 years", "5-10 years", ">10 years",
	}
)

func BuildDurationAnalysis(set *model.RecordSet) *DurationAnalysis {
	valid := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.HasDurationMonths && r.DurationMonths > 0 && r.DurationMonths < maxPlausibleMonths
	})

	doc := &DurationAnalysis{
		ByMinistry:   []MinistryDuration{},
		Distribution: []DurationBand{},
	}

	byMinistry := make(map[string][]float64)
	var ministries []string
	var all []float64
	for _, r := range valid {
		if _, seen := byMinistry[r.Ministry]; !seen {
			ministries = append(ministries, r.Ministry)
		}
		byMinistry[r.Ministry] = append(byMinistry[r.Ministry], r.DurationMonths)
		all = append(all, r.DurationMonths)
	}
	sort.Strings(ministries)
	for _, m := range ministries {
		months := byMinistry[m]
		doc.ByMinistry = append(doc.ByMinistry, MinistryDuration{
			Ministry:     m,
			MeanMonths:   aggregate.Mean(months),
			MedianMonths: aggregate.Median(months),
			StdMonths:    aggregate.StdDev(months),
			ProjectCount: len(months),
		})
	}

	bandCounts := make([]int, len(durationLabels))
	for _, r := range valid {
		if band := durationBand(r.DurationMonths); band >= 0 {
			bandCounts[band]++
		}
	}
	for i, label := range durationLabels {
		doc.Distribution = append(doc.Distribution, DurationBand{
			Range: label,
			Count: bandCounts[i],
		})
	}

	doc.OverallStats = DurationStats{
		MeanMonths:    aggregate.Mean(all),
		MedianMonths:  aggregate.Median(all),
		TotalAnalyzed: len(valid),
	}
	return doc
}

// durationBand returns the histogram band index for a month count, or -1
// when it falls outside every band.
func durationBand(months float64) int {
	for i := len(durationBounds) - 2; i >= 0; i-- {
		if months >= durationBounds[i] && months < durationBounds[i+1] {
			return i
		}
	}
	return -1
}
