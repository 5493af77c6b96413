// pkg/report/geographic.go
package report

import (
	"strings"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// GeographicDistribution breaks domestic funding down by state and city.
// Domestic means Staat equals "Deutschland"; foreign recipients are covered
// by the recipients report instead.
type GeographicDistribution struct {
	States                []StateEntry `json:"states"`
	TopCities             []CityEntry  `json:"top_cities"`
	TotalDomesticFunding  float64      `json:"total_domestic_funding"`
	TotalDomesticProjects int          `json:"total_domestic_projects"`
}

type StateEntry struct {
	Name         string  `json:"name"`
	TotalFunding float64 `json:"total_funding"`
	AvgFunding   float64 `json:"avg_funding"`
	ProjectCount int     `json:"project_count"`
}

type CityEntry struct {
	City         string  `json:"city"`
	State        string  `json:"state"`
	TotalFunding float64 `json:"total_funding"`
	ProjectCount int     `json:"project_count"`
}

const domesticCountry = "Deutschland"

// pairSep joins composite group keys. Unit separator never occurs in the
// registry's text fields.
const pairSep = "\x1f"

const topCityCount = 30

func BuildGeographicDistribution(set *model.RecordSet) *GeographicDistribution {
	domestic := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.Country == domesticCountry
	})

	doc := &GeographicDistribution{
		States:                []StateEntry{},
		TopCities:             []CityEntry{},
		TotalDomesticProjects: len(domestic),
	}
	for _, r := range domestic {
		doc.TotalDomesticFunding += r.FundingAmount
	}

	// Records without a state value stay in the domestic totals but are
	// left out of the per-state breakdown.
	withState := aggregate.Filter(domestic, func(r *model.FundingRecord) bool {
		return r.State != ""
	})
	states := aggregate.GroupBy(withState, func(r *model.FundingRecord) string {
		return r.State
	}, aggregate.FundingAmount)
	states = aggregate.TopN(states, len(states), aggregate.BySum)
	for _, g := range states {
		doc.States = append(doc.States, StateEntry{
			Name:         g.Key,
			TotalFunding: g.Sum,
			AvgFunding:   g.Mean,
			ProjectCount: g.Count,
		})
	}

	withCity := aggregate.Filter(domestic, func(r *model.FundingRecord) bool {
		return r.City != "" && r.State != ""
	})
	cities := aggregate.GroupBy(withCity, func(r *model.FundingRecord) string {
		return r.City + pairSep + r.State
	}, aggregate.FundingAmount)
	for _, g := range aggregate.TopN(cities, topCityCount, aggregate.BySum) {
		city, state, _ := strings.Cut(g.Key, pairSep)
		doc.TopCities = append(doc.TopCities, CityEntry{
			City:         city,
			State:        state,
			TotalFunding: g.Sum,
			ProjectCount: g.Count,
		})
	}
	return doc
}
