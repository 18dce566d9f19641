package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/dataset"
)

// row builds a synthetic enriched row with the fields the filter layer
// reads.
func row(orderID string, purchase time.Time, state, category string) dataset.EnrichedRow {
	return dataset.EnrichedRow{
		OrderID:                orderID,
		CustomerState:          state,
		ProductCategoryEnglish: category,
		PurchaseTimestamp:      purchase,
		PurchaseYear:           purchase.Year(),
		PurchaseMonth:          purchase.Format("2006-01"),
		HourOfDay:              purchase.Hour(),
		DayOfWeek:              purchase.Weekday().String(),
		PaymentValue:           100,
		ReviewScore:            4,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestApply_ConjunctionOfStateAndCategory(t *testing.T) {
	// All four match/no-match combinations for state SP and category toys;
	// only the all-match row must survive.
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("both", date(2017, 3, 1), "SP", "toys"),
		row("state-only", date(2017, 3, 2), "SP", "furniture_decor"),
		row("category-only", date(2017, 3, 3), "RJ", "toys"),
		row("neither", date(2017, 3, 4), "RJ", "furniture_decor"),
	}}

	sel := DefaultSelection(table)
	sel.State = "SP"
	sel.Category = "toys"

	got := Apply(table, sel)
	require.Len(t, got, 1)
	assert.Equal(t, "both", got[0].OrderID)
}

func TestApply_YearFilterIgnoresDateRange(t *testing.T) {
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("o2016", date(2016, 6, 1), "SP", "toys"),
		row("o2017a", date(2017, 2, 1), "SP", "toys"),
		row("o2017b", date(2017, 11, 30), "RJ", "toys"),
	}}

	// Date range pinned to a 2016-only window; selecting year 2017 must
	// still return all 2017 rows.
	sel := DefaultSelection(table)
	sel.Year = 2017
	sel.StartDate = date(2016, 1, 1)
	sel.EndDate = date(2016, 12, 31)

	got := Apply(table, sel)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, 2017, r.PurchaseYear)
	}
}

func TestApply_DateRangeBoundsAreInclusive(t *testing.T) {
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("before", date(2017, 3, 9), "SP", "toys"),
		row("start", time.Date(2017, 3, 10, 23, 59, 0, 0, time.UTC), "SP", "toys"),
		row("inside", date(2017, 3, 15), "SP", "toys"),
		row("end", time.Date(2017, 3, 20, 0, 1, 0, 0, time.UTC), "SP", "toys"),
		row("after", date(2017, 3, 21), "SP", "toys"),
	}}

	sel := DefaultSelection(table)
	sel.StartDate = date(2017, 3, 10)
	sel.EndDate = date(2017, 3, 20)

	got := Apply(table, sel)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.OrderID)
	}
	assert.ElementsMatch(t, []string{"start", "inside", "end"}, ids)
}

func TestApply_EmptyResult(t *testing.T) {
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("o1", date(2017, 3, 1), "SP", "toys"),
	}}

	sel := DefaultSelection(table)
	sel.Year = 2018

	got := Apply(table, sel)
	assert.Empty(t, got)

	_, err := Summarize(got)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestDefaultSelection_UsesPurchaseDateBounds(t *testing.T) {
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("late", date(2018, 8, 29), "SP", "toys"),
		row("early", date(2016, 9, 4), "RJ", "toys"),
		row("middle", date(2017, 5, 1), "SP", "toys"),
	}}

	sel := DefaultSelection(table)
	assert.Equal(t, AllYears, sel.Year)
	assert.Equal(t, AllStates, sel.State)
	assert.Equal(t, AllCategories, sel.Category)
	assert.Equal(t, DefaultTopN, sel.TopN)
	assert.Equal(t, time.Date(2016, 9, 4, 0, 0, 0, 0, time.UTC), sel.StartDate)
	assert.Equal(t, time.Date(2018, 8, 29, 0, 0, 0, 0, time.UTC), sel.EndDate)

	// Defaults keep the whole table: reset == full view.
	assert.Len(t, Apply(table, sel), 3)
}

func TestDefaultSelection_EmptyTable(t *testing.T) {
	sel := DefaultSelection(&dataset.EnrichedTable{})
	assert.True(t, sel.StartDate.IsZero())
	assert.True(t, sel.EndDate.IsZero())
}

func TestOptions_SortedDistinctValues(t *testing.T) {
	table := &dataset.EnrichedTable{Rows: []dataset.EnrichedRow{
		row("a", date(2018, 1, 1), "SP", "toys"),
		row("b", date(2016, 1, 1), "RJ", "auto"),
		row("c", date(2017, 1, 1), "SP", "toys"),
	}}

	opts := Options(table)
	assert.Equal(t, []int{2016, 2017, 2018}, opts.Years)
	assert.Equal(t, []string{"RJ", "SP"}, opts.States)
	assert.Equal(t, []string{"auto", "toys"}, opts.Categories)
	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), opts.MinDate)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), opts.MaxDate)
}
