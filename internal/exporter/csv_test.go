package exporter

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/analytics"
)

func readReport(t *testing.T, dir, name string) [][]string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	// Excel compatibility BOM.
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_MonthlyRevenue(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	err := w.WriteMonthlyRevenue("monthly.csv", []analytics.MonthRevenue{
		{Month: "2017-05", Revenue: 110.5},
		{Month: "2017-06", Revenue: 55},
	})
	require.NoError(t, err)

	records := readReport(t, dir, "monthly.csv")
	require.Len(t, records, 3)
	assert.Equal(t, []string{"month", "revenue"}, records[0])
	assert.Equal(t, []string{"2017-05", "110.5"}, records[1])
	assert.Equal(t, []string{"2017-06", "55"}, records[2])
}

func TestCSVWriter_Counts(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	err := w.WriteCounts("payments.csv", "payment_type", []analytics.CountItem{
		{Label: "credit_card", Count: 2},
		{Label: "boleto", Count: 1},
	})
	require.NoError(t, err)

	records := readReport(t, dir, "payments.csv")
	require.Len(t, records, 3)
	assert.Equal(t, []string{"payment_type", "count"}, records[0])
	assert.Equal(t, []string{"credit_card", "2"}, records[1])
}

func TestCSVWriter_RevenueRankingAndStateRevenue(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	require.NoError(t, w.WriteRevenueRanking("top.csv", "category", []analytics.RevenueItem{
		{Label: "toys", Revenue: 120},
	}))
	records := readReport(t, dir, "top.csv")
	assert.Equal(t, []string{"category", "revenue"}, records[0])
	assert.Equal(t, []string{"toys", "120"}, records[1])

	require.NoError(t, w.WriteStateRevenue("states.csv", []analytics.StateRevenuePoint{
		{State: "SP", Revenue: 110, Lat: -23.5, Lng: -46.6},
	}))
	records = readReport(t, dir, "states.csv")
	assert.Equal(t, []string{"state", "revenue", "lat", "lng"}, records[0])
	assert.Equal(t, []string{"SP", "110", "-23.5", "-46.6"}, records[1])
}

func TestCSVWriter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	w := NewCSVWriter(dir, nil)

	require.NoError(t, w.WriteCounts("c.csv", "label", nil))
	_, err := os.Stat(filepath.Join(dir, "c.csv"))
	assert.NoError(t, err)
}
