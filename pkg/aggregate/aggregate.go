// pkg/aggregate/aggregate.go
package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/foerderkatalog/pipeline/pkg/model"
)

// KeyFunc extracts the grouping key from a record. An empty key is a valid
// group of its own; callers that want it gone filter beforehand.
type KeyFunc func(*model.FundingRecord) string

// ValueFunc extracts the numeric value to aggregate from a record.
type ValueFunc func(*model.FundingRecord) float64

// FundingAmount is the ValueFunc used by almost every report.
func FundingAmount(r *model.FundingRecord) float64 {
	return r.FundingAmount
}

// GroupStats holds sum, mean and count for one group.
type GroupStats struct {
	Key   string
	Sum   float64
	Mean  float64
	Count int
}

// GroupBy partitions records by key and computes sum, mean and count of
// value per group. Groups appear in first-encountered order, which is also
// the tie-break order for TopN.
func GroupBy(records []model.FundingRecord, key KeyFunc, value ValueFunc) []GroupStats {
	index := make(map[string]int)
	groups := make([]GroupStats, 0)
	for i := range records {
		k := key(&records[i])
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, GroupStats{Key: k})
		}
		groups[pos].Sum += value(&records[i])
		groups[pos].Count++
	}
	for i := range groups {
		if groups[i].Count > 0 {
			groups[i].Mean = groups[i].Sum / float64(groups[i].Count)
		}
	}
	return groups
}

// Filter returns the records matching pred, preserving order.
func Filter(records []model.FundingRecord, pred func(*model.FundingRecord) bool) []model.FundingRecord {
	out := make([]model.FundingRecord, 0, len(records))
	for i := range records {
		if pred(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// TopN returns the first n groups after sorting descending by metric. The
// sort is stable, so ties keep their first-encountered order. The result
// has length min(n, len(groups)).
func TopN(groups []GroupStats, n int, metric func(GroupStats) float64) []GroupStats {
	sorted := make([]GroupStats, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// BySum is the TopN metric selecting the group sum.
func BySum(g GroupStats) float64 { return g.Sum }

// ByCount is the TopN metric selecting the group count.
func ByCount(g GroupStats) float64 { return float64(g.Count) }

// ShareOfTotal returns subset/total as a percentage, or 0 when total is
// not positive.
func ShareOfTotal(subset, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return subset / total * 100
}

// PivotTable is a two-dimensional sum table. Missing combinations read as
// 0.
type PivotTable struct {
	RowKeys []string // first-encountered order
	ColKeys []string // first-encountered order
	cells   map[[2]string]float64
}

// Pivot builds a PivotTable of summed value by (rowKey, colKey).
func Pivot(records []model.FundingRecord, rowKey, colKey KeyFunc, value ValueFunc) *PivotTable {
	t := &PivotTable{cells: make(map[[2]string]float64)}
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})
	for i := range records {
		r := rowKey(&records[i])
		c := colKey(&records[i])
		if _, ok := rowSeen[r]; !ok {
			rowSeen[r] = struct{}{}
			t.RowKeys = append(t.RowKeys, r)
		}
		if _, ok := colSeen[c]; !ok {
			colSeen[c] = struct{}{}
			t.ColKeys = append(t.ColKeys, c)
		}
		t.cells[[2]string{r, c}] += value(&records[i])
	}
	return t
}

// Value returns the summed value at (row, col), 0 for missing
// combinations.
func (t *PivotTable) Value(row, col string) float64 {
	return t.cells[[2]string{row, col}]
}

// SortRowKeys sorts the row keys in place with the given less function.
func (t *PivotTable) SortRowKeys(less func(a, b string) bool) {
	sort.SliceStable(t.RowKeys, func(i, j int) bool { return less(t.RowKeys[i], t.RowKeys[j]) })
}

// SortColKeys sorts the column keys in place with the given less function.
func (t *PivotTable) SortColKeys(less func(a, b string) bool) {
	sort.SliceStable(t.ColKeys, func(i, j int) bool { return less(t.ColKeys[i], t.ColKeys[j]) })
}

// YearValue is one point of an annual series.
type YearValue struct {
	Year  int
	Value float64
}

// YearGrowth is one point of a year-over-year growth series. GrowthPct is
// nil for the first year and whenever the prior value is not positive.
type YearGrowth struct {
	Year      int
	Value     float64
	GrowthPct *float64
}

// YearOverYear computes the year-over-year percentage delta for a series
// ordered by year.
func YearOverYear(series []YearValue) []YearGrowth {
	out := make([]YearGrowth, 0, len(series))
	for i, yv := range series {
		g := YearGrowth{Year: yv.Year, Value: yv.Value}
		if i > 0 && series[i-1].Value > 0 {
			pct := (yv.Value - series[i-1].Value) / series[i-1].Value * 100
			g.GrowthPct = &pct
		}
		out = append(out, g)
	}
	return out
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Median returns the median of values (midpoint of the two central values
// for even-length input), 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// StdDev returns the sample standard deviation of values, 0 when fewer
// than two values are present.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// DistinctPerGroup collects up to limit distinct non-empty values per
// group, in first-encountered order. Used for "ministries served by a
// sponsor" style annotations.
func DistinctPerGroup(records []model.FundingRecord, groupKey, valueKey KeyFunc, limit int) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[[2]string]struct{})
	for i := range records {
		g := groupKey(&records[i])
		v := valueKey(&records[i])
		if v == "" {
			continue
		}
		if _, ok := seen[[2]string{g, v}]; ok {
			continue
		}
		seen[[2]string{g, v}] = struct{}{}
		if len(out[g]) < limit {
			out[g] = append(out[g], v)
		}
	}
	return out
}
