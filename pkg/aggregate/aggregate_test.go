package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foerderkatalog/pipeline/pkg/model"
)

func rec(ministry string, amount float64) model.FundingRecord {
	return model.FundingRecord{Ministry: ministry, FundingAmount: amount}
}

func byMinistry(r *model.FundingRecord) string { return r.Ministry }

func TestGroupBy(t *testing.T) {
	records := []model.FundingRecord{
		rec("A", 100), rec("B", 50), rec("A", 200), rec("", 25),
	}
	groups := GroupBy(records, byMinistry, FundingAmount)
	require.Len(t, groups, 3)

	// First-encountered order.
	assert.Equal(t, "A", groups[0].Key)
	assert.Equal(t, "B", groups[1].Key)
	assert.Equal(t, "", groups[2].Key, "empty key forms its own group")

	assert.InDelta(t, 300.0, groups[0].Sum, 1e-9)
	assert.InDelta(t, 150.0, groups[0].Mean, 1e-9)
	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 25.0, groups[2].Sum, 1e-9)
}

func TestGroupSumsReconcileWithGrandTotal(t *testing.T) {
	records := []model.FundingRecord{
		rec("A", 1.1), rec("B", 2.2), rec("C", 3.3), rec("A", 4.4), rec("B", 5.5),
	}
	groups := GroupBy(records, byMinistry, FundingAmount)
	groupTotal := 0.0
	for _, g := range groups {
		groupTotal += g.Sum
	}
	grandTotal := 0.0
	for i := range records {
		grandTotal += records[i].FundingAmount
	}
	assert.InDelta(t, grandTotal, groupTotal, 1e-9)
}

func TestTopN(t *testing.T) {
	groups := []GroupStats{
		{Key: "low", Sum: 10, Count: 5},
		{Key: "high", Sum: 100, Count: 1},
		{Key: "mid", Sum: 50, Count: 3},
		{Key: "tie", Sum: 50, Count: 2},
	}

	top := TopN(groups, 3, BySum)
	require.Len(t, top, 3)
	assert.Equal(t, "high", top[0].Key)
	assert.Equal(t, "mid", top[1].Key, "ties keep first-encountered order")
	assert.Equal(t, "tie", top[2].Key)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Sum, top[i].Sum, "descending order")
	}

	// n larger than the group count returns everything.
	assert.Len(t, TopN(groups, 99, ByCount), 4)
	// TopN must not reorder the input.
	assert.Equal(t, "low", groups[0].Key)
}

func TestShareOfTotal(t *testing.T) {
	assert.InDelta(t, 25.0, ShareOfTotal(1, 4), 1e-9)
	assert.Equal(t, 0.0, ShareOfTotal(1, 0))
	assert.Equal(t, 0.0, ShareOfTotal(1, -5))
}

func TestPivot(t *testing.T) {
	records := []model.FundingRecord{
		{Ministry: "A", StartYear: 2020, HasStartDate: true, FundingAmount: 10},
		{Ministry: "B", StartYear: 2020, HasStartDate: true, FundingAmount: 20},
		{Ministry: "A", StartYear: 2021, HasStartDate: true, FundingAmount: 30},
	}
	year := func(r *model.FundingRecord) string {
		return map[int]string{2020: "2020", 2021: "2021"}[r.StartYear]
	}
	table := Pivot(records, year, byMinistry, FundingAmount)

	assert.InDelta(t, 10.0, table.Value("2020", "A"), 1e-9)
	assert.InDelta(t, 20.0, table.Value("2020", "B"), 1e-9)
	assert.InDelta(t, 30.0, table.Value("2021", "A"), 1e-9)
	assert.Equal(t, 0.0, table.Value("2021", "B"), "missing combinations fill with 0")
}

func TestYearOverYear(t *testing.T) {
	series := []YearValue{
		{2019, 100}, {2020, 150}, {2021, 0}, {2022, 50},
	}
	growth := YearOverYear(series)
	require.Len(t, growth, 4)
	assert.Nil(t, growth[0].GrowthPct, "first year has no prior")
	require.NotNil(t, growth[1].GrowthPct)
	assert.InDelta(t, 50.0, *growth[1].GrowthPct, 1e-9)
	require.NotNil(t, growth[2].GrowthPct)
	assert.InDelta(t, -100.0, *growth[2].GrowthPct, 1e-9)
	assert.Nil(t, growth[3].GrowthPct, "prior value 0 yields null growth")
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 1.5, Median([]float64{2, 1}), 1e-9)
}

func TestDistinctPerGroup(t *testing.T) {
	records := []model.FundingRecord{
		{Sponsor: "PTJ", Ministry: "A"},
		{Sponsor: "PTJ", Ministry: "B"},
		{Sponsor: "PTJ", Ministry: "A"},
		{Sponsor: "PTJ", Ministry: "C"},
		{Sponsor: "PTJ", Ministry: "D"},
		{Sponsor: "BLE", Ministry: ""},
	}
	bySponsor := func(r *model.FundingRecord) string { return r.Sponsor }
	got := DistinctPerGroup(records, bySponsor, byMinistry, 3)
	assert.Equal(t, []string{"A", "B", "C"}, got["PTJ"], "capped at limit, first-seen order, distinct")
	assert.Empty(t, got["BLE"], "empty values are skipped")
}
