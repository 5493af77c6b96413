// pkg/report/recipients.go
package report

import (
	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// TopRecipients lists the largest funding recipients, once ranked by total
// funding and once by project count.
type TopRecipients struct {
	TopByFunding     []RecipientFundingEntry `json:"top_by_funding"`
	TopByCount       []RecipientCountEntry   `json:"top_by_count"`
	UniqueRecipients int                     `json:"unique_recipients"`
}

type RecipientFundingEntry struct {
	Name         string  `json:"name"`
	TotalFunding float64 `json:"total_funding"`
	AvgFunding   float64 `json:"avg_funding"`
	ProjectCount int     `json:"project_count"`
}

type RecipientCountEntry struct {
	Name         string  `json:"name"`
	TotalFunding float64 `json:"total_funding"`
	ProjectCount int     `json:"project_count"`
}

const topRecipientCount = 50

func BuildTopRecipients(set *model.RecordSet) *TopRecipients {
	named := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.Recipient != ""
	})
	groups := aggregate.GroupBy(named, func(r *model.FundingRecord) string {
		return r.Recipient
	}, aggregate.FundingAmount)

	doc := &TopRecipients{
		TopByFunding:     []RecipientFundingEntry{},
		TopByCount:       []RecipientCountEntry{},
		UniqueRecipients: len(groups),
	}
	for _, g := range aggregate.TopN(groups, topRecipientCount, aggregate.BySum) {
		doc.TopByFunding = append(doc.TopByFunding, RecipientFundingEntry{
			Name:         g.Key,
			TotalFunding: g.Sum,
			AvgFunding:   g.Mean,
			ProjectCount: g.Count,
		})
	}
	for _, g := range aggregate.TopN(groups, topRecipientCount, aggregate.ByCount) {
		doc.TopByCount = append(doc.TopByCount, RecipientCountEntry{
			Name:         g.Key,
			TotalFunding: g.Sum,
			ProjectCount: g.Count,
		})
	}
	return doc
}
