// pkg/report/ministry.go
package report

import (
	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// MinistryFunding breaks total funding down by federal ministry.
type MinistryFunding struct {
	Ministries    []MinistryEntry `json:"ministries"`
	TotalFunding  float64         `json:"total_funding"`
	TotalProjects int             `json:"total_projects"`
}

type MinistryEntry struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	TotalFunding float64 `json:"total_funding"`
	AvgFunding   float64 `json:"avg_funding"`
	ProjectCount int     `json:"project_count"`
}

// BuildMinistryFunding groups every record by ministry code. All ministries
// appear, ordered by total funding descending.
func BuildMinistryFunding(set *model.RecordSet) *MinistryFunding {
	records := set.Records()
	groups := aggregate.GroupBy(records, func(r *model.FundingRecord) string {
		return r.Ministry
	}, aggregate.FundingAmount)
	groups = aggregate.TopN(groups, len(groups), aggregate.BySum)

	doc := &MinistryFunding{
		Ministries:    make([]MinistryEntry, 0, len(groups)),
		TotalFunding:  set.TotalFunding(),
		TotalProjects: set.Len(),
	}
	for _, g := range groups {
		doc.Ministries = append(doc.Ministries, MinistryEntry{
			Code:         g.Key,
			Name:         model.MinistryName(g.Key),
			TotalFunding: g.Sum,
			AvgFunding:   g.Mean,
			ProjectCount: g.Count,
		})
	}
	return doc
}
