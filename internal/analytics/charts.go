package analytics

import (
	"math"
	"sort"

	"ecomdash/internal/dataset"
)

// Weekday display order for the sales heatmap.
var WeekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// StateRevenuePoint is one bubble of the geographic revenue map: a customer
// state's revenue placed at the state's geolocation centroid.
type StateRevenuePoint struct {
	State   string  `json:"state"`
	Revenue float64 `json:"revenue"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// MonthRevenue is one point of the monthly revenue series.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Heatmap is the day-of-week x hour-of-day revenue matrix. Values follow
// WeekdayOrder on the first axis and hours 0..23 on the second; cells with
// no sales hold zero.
type Heatmap struct {
	Days   []string      `json:"days"`
	Hours  []int         `json:"hours"`
	Values [][24]float64 `json:"values"`
}

// CountItem is one labeled count (payment types, delivery statuses).
type CountItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RevenueItem is one labeled revenue total (category and seller rankings).
type RevenueItem struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
}

// ScoreBoxStats summarizes delivery times for one review score as box-plot
// quartiles.
type ScoreBoxStats struct {
	Score  int     `json:"score"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// StateRevenue aggregates revenue by customer state and joins each state
// with its geolocation centroid. States without a centroid are dropped,
// matching the inner-join policy of the pipeline.
func StateRevenue(rows []dataset.EnrichedRow, centroids []dataset.StateCentroid) []StateRevenuePoint {
	revenue := map[string]float64{}
	for _, row := range rows {
		revenue[row.CustomerState] += row.PaymentValue
	}

	var out []StateRevenuePoint
	for _, c := range centroids {
		rev, ok := revenue[c.State]
		if !ok {
			continue
		}
		out = append(out, StateRevenuePoint{State: c.State, Revenue: rev, Lat: c.Lat, Lng: c.Lng})
	}
	return out
}

// MonthlyRevenue aggregates revenue by purchase month, chronologically. The
// month token format ("2006-01") sorts lexicographically in time order.
func MonthlyRevenue(rows []dataset.EnrichedRow) []MonthRevenue {
	revenue := map[string]float64{}
	for _, row := range rows {
		revenue[row.PurchaseMonth] += row.PaymentValue
	}

	out := make([]MonthRevenue, 0, len(revenue))
	for month, rev := range revenue {
		out = append(out, MonthRevenue{Month: month, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// RevenueHeatmap builds the weekday-by-hour revenue matrix.
func RevenueHeatmap(rows []dataset.EnrichedRow) Heatmap {
	dayIndex := make(map[string]int, len(WeekdayOrder))
	for i, d := range WeekdayOrder {
		dayIndex[d] = i
	}

	hm := Heatmap{
		Days:   WeekdayOrder,
		Hours:  make([]int, 24),
		Values: make([][24]float64, len(WeekdayOrder)),
	}
	for h := range hm.Hours {
		hm.Hours[h] = h
	}
	for _, row := range rows {
		i, ok := dayIndex[row.DayOfWeek]
		if !ok || row.HourOfDay < 0 || row.HourOfDay > 23 {
			continue
		}
		hm.Values[i][row.HourOfDay] += row.PaymentValue
	}
	return hm
}

// PaymentTypeCounts counts enriched rows per payment type, most frequent
// first.
func PaymentTypeCounts(rows []dataset.EnrichedRow) []CountItem {
	counts := map[string]int{}
	for _, row := range rows {
		counts[row.PaymentType]++
	}
	return sortedCounts(counts)
}

// DeliveryStatusCounts counts enriched rows per delivery status, most
// frequent first.
func DeliveryStatusCounts(rows []dataset.EnrichedRow) []CountItem {
	counts := map[string]int{}
	for _, row := range rows {
		counts[string(row.DeliveryStatus)]++
	}
	return sortedCounts(counts)
}

// DeliveryTimeByScore computes delivery-time box-plot statistics per review
// score. Rows without a delivery time are skipped; scores with no delivered
// rows are absent from the result.
func DeliveryTimeByScore(rows []dataset.EnrichedRow) []ScoreBoxStats {
	byScore := map[int][]float64{}
	for _, row := range rows {
		if row.DeliveryTime == nil {
			continue
		}
		byScore[row.ReviewScore] = append(byScore[row.ReviewScore], float64(*row.DeliveryTime))
	}

	scores := make([]int, 0, len(byScore))
	for score := range byScore {
		scores = append(scores, score)
	}
	sort.Ints(scores)

	out := make([]ScoreBoxStats, 0, len(scores))
	for _, score := range scores {
		values := byScore[score]
		sort.Float64s(values)
		out = append(out, ScoreBoxStats{
			Score:  score,
			Count:  len(values),
			Min:    values[0],
			Q1:     percentile(values, 0.25),
			Median: percentile(values, 0.5),
			Q3:     percentile(values, 0.75),
			Max:    values[len(values)-1],
		})
	}
	return out
}

// TopCategories ranks product categories by revenue, descending, keeping the
// first n.
func TopCategories(rows []dataset.EnrichedRow, n int) []RevenueItem {
	revenue := map[string]float64{}
	for _, row := range rows {
		revenue[row.ProductCategoryEnglish] += row.PaymentValue
	}
	return topRevenue(revenue, n)
}

// TopSellerStates ranks seller states by revenue, descending, keeping the
// first n.
func TopSellerStates(rows []dataset.EnrichedRow, n int) []RevenueItem {
	revenue := map[string]float64{}
	for _, row := range rows {
		revenue[row.SellerState] += row.PaymentValue
	}
	return topRevenue(revenue, n)
}

// ClampTopN forces n into the slider bounds, defaulting when unset.
func ClampTopN(n int) int {
	if n == 0 {
		return DefaultTopN
	}
	if n < MinTopN {
		return MinTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// percentile computes the p-quantile of sorted values with linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func topRevenue(revenue map[string]float64, n int) []RevenueItem {
	out := make([]RevenueItem, 0, len(revenue))
	for label, rev := range revenue {
		out = append(out, RevenueItem{Label: label, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedCounts(counts map[string]int) []CountItem {
	out := make([]CountItem, 0, len(counts))
	for label, count := range counts {
		out = append(out, CountItem{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
