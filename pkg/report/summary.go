// pkg/report/summary.go
package report

import (
	"time"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// SummaryStats condenses the whole run into one document, drawing on the
// already-built per-topic reports for its highlights.
type SummaryStats struct {
	GeneratedAt      string     `json:"generated_at"`
	DataSource       string     `json:"data_source"`
	TotalProjects    int        `json:"total_projects"`
	TotalFunding     float64    `json:"total_funding"`
	UniqueRecipients int        `json:"unique_recipients"`
	UniqueMinistries int        `json:"unique_ministries"`
	DateRange        DateRange  `json:"date_range"`
	MinistryCount    int        `json:"ministry_count"`
	StateCount       int        `json:"state_count"`
	Highlights       Highlights `json:"highlights"`
}

type DateRange struct {
	EarliestStart *string `json:"earliest_start"`
	LatestStart   *string `json:"latest_start"`
}

type Highlights struct {
	TopMinistry          *string `json:"top_ministry"`
	TopState             *string `json:"top_state"`
	TopRecipient         *string `json:"top_recipient"`
	AvgProjectFunding    float64 `json:"avg_project_funding"`
	MedianProjectFunding float64 `json:"median_project_funding"`
}

func BuildSummaryStats(set *model.RecordSet, ministry *MinistryFunding, geo *GeographicDistribution, recipients *TopRecipients) *SummaryStats {
	records := set.Records()

	amounts := make([]float64, 0, len(records))
	distinctMinistries := make(map[string]struct{})
	var earliest, latest time.Time
	for i := range records {
		r := &records[i]
		amounts = append(amounts, r.FundingAmount)
		if r.Ministry != "" {
			distinctMinistries[r.Ministry] = struct{}{}
		}
		if r.HasStartDate {
			if earliest.IsZero() || r.StartDate.Before(earliest) {
				earliest = r.StartDate
			}
			if latest.IsZero() || r.StartDate.After(latest) {
				latest = r.StartDate
			}
		}
	}

	doc := &SummaryStats{
		GeneratedAt:      time.Now().Format("2006-01-02T15:04:05.000000"),
		DataSource:       set.Source(),
		TotalProjects:    set.Len(),
		TotalFunding:     set.TotalFunding(),
		UniqueRecipients: recipients.UniqueRecipients,
		UniqueMinistries: len(distinctMinistries),
		MinistryCount:    len(ministry.Ministries),
		StateCount:       len(geo.States),
		Highlights: Highlights{
			AvgProjectFunding:    aggregate.Mean(amounts),
			MedianProjectFunding: aggregate.Median(amounts),
		},
	}
	if !earliest.IsZero() {
		doc.DateRange.EarliestStart = isoDate(earliest)
		doc.DateRange.LatestStart = isoDate(latest)
	}
	if len(ministry.Ministries) > 0 {
		doc.Highlights.TopMinistry = &ministry.Ministries[0].Code
	}
	if len(geo.States) > 0 {
		doc.Highlights.TopState = &geo.States[0].Name
	}
	if len(recipients.TopByFunding) > 0 {
		doc.Highlights.TopRecipient = &recipients.TopByFunding[0].Name
	}
	return doc
}

func isoDate(t time.Time) *string {
	s := t.Format("2006-01-02T15:04:05")
	return &s
}
