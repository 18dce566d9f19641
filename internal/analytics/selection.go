package analytics

import (
	"time"

	"ecomdash/internal/dataset"
)

// Sentinel values for the "no filter" position of each control.
const (
	AllYears      = 0
	AllStates     = "All States"
	AllCategories = "All Categories"
)

// Top-N bounds for the ranking charts, mirroring the dashboard slider.
const (
	MinTopN     = 5
	MaxTopN     = 20
	DefaultTopN = 10
)

// Selection is the user-controlled filter state. It is a plain value:
// owned per session by the caller, passed into the pure Apply function,
// never ambient. Year and the date range are mutually exclusive; a concrete
// Year wins and the range is ignored entirely.
type Selection struct {
	Year      int       `json:"year"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	State     string    `json:"state"`
	Category  string    `json:"category"`
	TopN      int       `json:"top_n"`
}

// DefaultSelection returns the full-range selection for a table: all years,
// the table's min/max purchase-date span, all states, all categories.
// Reset is the same operation.
func DefaultSelection(t *dataset.EnrichedTable) Selection {
	sel := Selection{
		Year:     AllYears,
		State:    AllStates,
		Category: AllCategories,
		TopN:     DefaultTopN,
	}
	if min, max, ok := t.PurchaseDateBounds(); ok {
		sel.StartDate = min
		sel.EndDate = max
	}
	return sel
}

// FilterOptions enumerates the legal values for each filter control.
type FilterOptions struct {
	Years      []int     `json:"years"`
	States     []string  `json:"states"`
	Categories []string  `json:"categories"`
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
}

// Apply filters the enriched table by the selection. The predicates compose
// as a conjunction: every returned row satisfies all active filters. The
// input table is not modified.
func Apply(t *dataset.EnrichedTable, sel Selection) []dataset.EnrichedRow {
	var out []dataset.EnrichedRow
	for _, row := range t.Rows {
		if !matches(row, sel) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matches(row dataset.EnrichedRow, sel Selection) bool {
	if sel.Year != AllYears {
		if row.PurchaseYear != sel.Year {
			return false
		}
	} else if !sel.StartDate.IsZero() || !sel.EndDate.IsZero() {
		d := dataset.DateOnly(row.PurchaseTimestamp)
		if !sel.StartDate.IsZero() && d.Before(dataset.DateOnly(sel.StartDate)) {
			return false
		}
		if !sel.EndDate.IsZero() && d.After(dataset.DateOnly(sel.EndDate)) {
			return false
		}
	}
	if sel.State != AllStates && sel.State != "" && row.CustomerState != sel.State {
		return false
	}
	if sel.Category != AllCategories && sel.Category != "" && row.ProductCategoryEnglish != sel.Category {
		return false
	}
	return true
}

// Options computes the filter control values from the full table.
func Options(t *dataset.EnrichedTable) FilterOptions {
	yearSet := map[int]struct{}{}
	stateSet := map[string]struct{}{}
	categorySet := map[string]struct{}{}
	for _, row := range t.Rows {
		yearSet[row.PurchaseYear] = struct{}{}
		stateSet[row.CustomerState] = struct{}{}
		categorySet[row.ProductCategoryEnglish] = struct{}{}
	}

	opts := FilterOptions{
		Years:      sortedInts(yearSet),
		States:     sortedStrings(stateSet),
		Categories: sortedStrings(categorySet),
	}
	if min, max, ok := t.PurchaseDateBounds(); ok {
		opts.MinDate = min
		opts.MaxDate = max
	}
	return opts
}
