package analytics

import (
	"errors"

	"ecomdash/internal/dataset"
)

// ErrNoRows indicates that the filtered table is empty. No statistics exist
// in that state; callers must surface a "no data for current filters"
// condition instead of treating any value as zero.
var ErrNoRows = errors.New("no rows match the current filters")

// Summary holds the dashboard KPIs over a filtered view.
//
// TotalRevenue sums payment_value across enriched rows. Joins fan out, so
// an order with multiple items or payments contributes its payment rows
// more than once; this matches the upstream behavior and is kept
// deliberately (see DESIGN.md). TotalOrders counts distinct order IDs and
// is immune to the fan-out.
type Summary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int     `json:"total_orders"`
	AvgReviewScore float64 `json:"avg_review_score"`
}

// Summarize computes the KPI summary over filtered rows. Empty input is
// ErrNoRows, never a zero-valued summary.
func Summarize(rows []dataset.EnrichedRow) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, ErrNoRows
	}

	var revenue, scoreSum float64
	orders := map[string]struct{}{}
	for _, row := range rows {
		revenue += row.PaymentValue
		scoreSum += float64(row.ReviewScore)
		orders[row.OrderID] = struct{}{}
	}

	return Summary{
		TotalRevenue:   revenue,
		TotalOrders:    len(orders),
		AvgReviewScore: scoreSum / float64(len(rows)),
	}, nil
}
