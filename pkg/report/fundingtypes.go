// pkg/report/fundingtypes.go
package report

import (
	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// FundingTypes breaks funding down by Förderart (grant instrument) and
// Förderprofil (programme profile).
type FundingTypes struct {
	Types    []CategoryEntry `json:"funding_types"`
	Profiles []CategoryEntry `json:"funding_profiles"`
}

type CategoryEntry struct {
	Name         string  `json:"name"`
	TotalFunding float64 `json:"total_funding"`
	ProjectCount int     `json:"project_count"`
}

func BuildFundingTypes(set *model.RecordSet) *FundingTypes {
	return &FundingTypes{
		Types: categoryBreakdown(set.Records(), func(r *model.FundingRecord) string {
			return r.FundingType
		}),
		Profiles: categoryBreakdown(set.Records(), func(r *model.FundingRecord) string {
			return r.FundingProfile
		}),
	}
}

// categoryBreakdown groups records by a category value, skipping records
// where it is absent, and returns every category ordered by funding.
func categoryBreakdown(records []model.FundingRecord, key aggregate.KeyFunc) []CategoryEntry {
	present := aggregate.Filter(records, func(r *model.FundingRecord) bool {
		return key(r) != ""
	})
	groups := aggregate.GroupBy(present, key, aggregate.FundingAmount)
	groups = aggregate.TopN(groups, len(groups), aggregate.BySum)

	entries := make([]CategoryEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, CategoryEntry{
			Name:         g.Key,
			TotalFunding: g.Sum,
			ProjectCount: g.Count,
		})
	}
	return entries
}
