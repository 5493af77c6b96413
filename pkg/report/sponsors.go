// pkg/report/sponsors.go
package report

import (
	"strings"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// SponsorAnalysis covers Projektträger, the agencies administering grants on
// behalf of the ministries.
type SponsorAnalysis struct {
	Sponsors            []SponsorEntry         `json:"projekttraeger"`
	UniqueCount         int                    `json:"unique_count"`
	MinistryBreakdown   []SponsorMinistryEntry `json:"pt_ministry_breakdown"`
}

type SponsorEntry struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	TotalFunding float64  `json:"total_funding"`
	AvgFunding   float64  `json:"avg_funding"`
	ProjectCount int      `json:"project_count"`
	Ministries   []string `json:"ministries"`
}

type SponsorMinistryEntry struct {
	Sponsor  string  `json:"pt"`
	Ministry string  `json:"ministry"`
	Funding  float64 `json:"funding"`
	Projects int     `json:"projects"`
}

const (
	topSponsorCount         = 20
	topSponsorMinistryCount = 30
	sponsorMinistrySample   = 3
)

func BuildSponsorAnalysis(set *model.RecordSet) *SponsorAnalysis {
	sponsored := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.Sponsor != ""
	})

	groups := aggregate.GroupBy(sponsored, func(r *model.FundingRecord) string {
		return r.Sponsor
	}, aggregate.FundingAmount)
	ministries := aggregate.DistinctPerGroup(sponsored,
		func(r *model.FundingRecord) string { return r.Sponsor },
		func(r *model.FundingRecord) string { return r.Ministry },
		sponsorMinistrySample)

	doc := &SponsorAnalysis{
		Sponsors:          []SponsorEntry{},
		UniqueCount:       len(groups),
		MinistryBreakdown: []SponsorMinistryEntry{},
	}
	for _, g := range aggregate.TopN(groups, topSponsorCount, aggregate.BySum) {
		doc.Sponsors = append(doc.Sponsors, SponsorEntry{
			Code:         g.Key,
			Name:         model.SponsorName(g.Key),
			TotalFunding: g.Sum,
			AvgFunding:   g.Mean,
			ProjectCount: g.Count,
			Ministries:   ministries[g.Key],
		})
	}

	pairs := aggregate.GroupBy(sponsored, func(r *model.FundingRecord) string {
		return r.Sponsor + pairSep + r.Ministry
	}, aggregate.FundingAmount)
	for _, g := range aggregate.TopN(pairs, topSponsorMinistryCount, aggregate.BySum) {
		sponsor, ministry, _ := strings.Cut(g.Key, pairSep)
		doc.MinistryBreakdown = append(doc.MinistryBreakdown, SponsorMinistryEntry{
			Sponsor:  sponsor,
			Ministry: ministry,
			Funding:  g.Sum,
			Projects: g.Count,
		})
	}
	return doc
}
