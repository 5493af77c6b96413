// pkg/report/temporal.go
package report

import (
	"sort"
	"strconv"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// TemporalTrends analyses funding by project start date. Only records with a
// parseable start date inside the plausibility window take part.
type TemporalTrends struct {
	YearlyTotals        []YearlyEntry             `json:"yearly_totals"`
	MinistryYearly      map[string][]YearFunding  `json:"ministry_yearly"`
	MonthlyDistribution []MonthlyEntry            `json:"monthly_distribution"`
	DecadeMinistryShare map[string][]MinistryShare `json:"decade_ministry_share"`
	YearOverYearGrowth  []GrowthEntry             `json:"year_over_year_growth"`
	Years               []int                     `json:"years"`
}

type YearlyEntry struct {
	Year         int     `json:"year"`
	TotalFunding float64 `json:"total_funding"`
	AvgFunding   float64 `json:"avg_funding"`
	ProjectCount int     `json:"project_count"`
}

type YearFunding struct {
	Year    int     `json:"year"`
	Funding float64 `json:"funding"`
}

type MonthlyEntry struct {
	Month        int     `json:"month"`
	MonthName    string  `json:"month_name"`
	TotalFunding float64 `json:"total_funding"`
	ProjectCount int     `json:"project_count"`
}

type MinistryShare struct {
	Ministry string  `json:"ministry"`
	Funding  float64 `json:"funding"`
	SharePct float64 `json:"share_pct"`
}

type GrowthEntry struct {
	Year      int      `json:"year"`
	Funding   float64  `json:"funding"`
	GrowthPct *float64 `json:"growth_pct"`
}

// Start years outside this window are treated as data defects and skipped.
const (
	minPlausibleYear = 1980
	maxPlausibleYear = 2030
)

// Growth figures from before the registry was reliably complete are noise.
const growthStartYear = 2010

var decades = []int{1990, 2000, 2010, 2020}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func BuildTemporalTrends(set *model.RecordSet) *TemporalTrends {
	dated := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.HasStartDate && r.StartYear >= minPlausibleYear && r.StartYear <= maxPlausibleYear
	})

	doc := &TemporalTrends{
		YearlyTotals:        []YearlyEntry{},
		MinistryYearly:      map[string][]YearFunding{},
		MonthlyDistribution: []MonthlyEntry{},
		DecadeMinistryShare: map[string][]MinistryShare{},
		YearOverYearGrowth:  []GrowthEntry{},
		Years:               []int{},
	}

	yearly := aggregate.GroupBy(dated, func(r *model.FundingRecord) string {
		return strconv.Itoa(r.StartYear)
	}, aggregate.FundingAmount)
	sort.Slice(yearly, func(i, j int) bool { return yearly[i].Key < yearly[j].Key })
	series := make([]aggregate.YearValue, 0, len(yearly))
	for _, g := range yearly {
		year, _ := strconv.Atoi(g.Key)
		doc.YearlyTotals = append(doc.YearlyTotals, YearlyEntry{
			Year:         year,
			TotalFunding: g.Sum,
			AvgFunding:   g.Mean,
			ProjectCount: g.Count,
		})
		doc.Years = append(doc.Years, year)
		series = append(series, aggregate.YearValue{Year: year, Value: g.Sum})
	}

	pivot := aggregate.Pivot(dated,
		func(r *model.FundingRecord) string { return strconv.Itoa(r.StartYear) },
		func(r *model.FundingRecord) string { return r.Ministry },
		aggregate.FundingAmount)
	pivot.SortRowKeys(func(a, b string) bool { return a < b })
	pivot.SortColKeys(func(a, b string) bool { return a < b })
	for _, ministry := range pivot.ColKeys {
		row := make([]YearFunding, 0, len(pivot.RowKeys))
		for _, y := range pivot.RowKeys {
			year, _ := strconv.Atoi(y)
			row = append(row, YearFunding{Year: year, Funding: pivot.Value(y, ministry)})
		}
		doc.MinistryYearly[ministry] = row
	}

	monthly := aggregate.GroupBy(dated, func(r *model.FundingRecord) string {
		return strconv.Itoa(int(r.StartDate.Month()))
	}, aggregate.FundingAmount)
	sort.Slice(monthly, func(i, j int) bool {
		mi, _ := strconv.Atoi(monthly[i].Key)
		mj, _ := strconv.Atoi(monthly[j].Key)
		return mi < mj
	})
	for _, g := range monthly {
		month, _ := strconv.Atoi(g.Key)
		doc.MonthlyDistribution = append(doc.MonthlyDistribution, MonthlyEntry{
			Month:        month,
			MonthName:    monthNames[month-1],
			TotalFunding: g.Sum,
			ProjectCount: g.Count,
		})
	}

	for _, decade := range decades {
		start, end := decade, decade+10
		inDecade := aggregate.Filter(dated, func(r *model.FundingRecord) bool {
			return r.StartYear >= start && r.StartYear < end
		})
		if len(inDecade) == 0 {
			continue
		}
		var decadeTotal float64
		for _, r := range inDecade {
			decadeTotal += r.FundingAmount
		}
		byMinistry := aggregate.GroupBy(inDecade, func(r *model.FundingRecord) string {
			return r.Ministry
		}, aggregate.FundingAmount)
		byMinistry = aggregate.TopN(byMinistry, len(byMinistry), aggregate.BySum)
		shares := make([]MinistryShare, 0, len(byMinistry))
		for _, g := range byMinistry {
			shares = append(shares, MinistryShare{
				Ministry: g.Key,
				Funding:  g.Sum,
				SharePct: aggregate.ShareOfTotal(g.Sum, decadeTotal),
			})
		}
		doc.DecadeMinistryShare[strconv.Itoa(decade)] = shares
	}

	// The series is cut to the growth window before differencing, so the
	// first year in the window has no growth figure even when earlier
	// years exist.
	recent := series[:0:0]
	for _, yv := range series {
		if yv.Year >= growthStartYear {
			recent = append(recent, yv)
		}
	}
	for _, g := range aggregate.YearOverYear(recent) {
		doc.YearOverYearGrowth = append(doc.YearOverYearGrowth, GrowthEntry{
			Year:      g.Year,
			Funding:   g.Value,
			GrowthPct: g.GrowthPct,
		})
	}
	return doc
}
