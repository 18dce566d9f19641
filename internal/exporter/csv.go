package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ecomdash/internal/analytics"
)

// CSVWriter writes chart series as CSV report files under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// write writes one CSV file with a UTF-8 BOM for Excel compatibility.
func (w *CSVWriter) write(name string, headers []string, records [][]string) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(w.dir, name)

	w.logger.Info("writing CSV report",
		slog.String("path", path),
		slog.Int("record_count", len(records)))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

// WriteMonthlyRevenue writes the monthly revenue series.
func (w *CSVWriter) WriteMonthlyRevenue(name string, series []analytics.MonthRevenue) error {
	records := make([][]string, 0, len(series))
	for _, p := range series {
		records = append(records, []string{p.Month, formatFloat(p.Revenue)})
	}
	return w.write(name, []string{"month", "revenue"}, records)
}

// WriteRevenueRanking writes a labeled revenue ranking (top categories, top
// seller states).
func (w *CSVWriter) WriteRevenueRanking(name, labelHeader string, items []analytics.RevenueItem) error {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, []string{item.Label, formatFloat(item.Revenue)})
	}
	return w.write(name, []string{labelHeader, "revenue"}, records)
}

// WriteCounts writes a labeled count series (payment types, delivery
// statuses).
func (w *CSVWriter) WriteCounts(name, labelHeader string, items []analytics.CountItem) error {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, []string{item.Label, strconv.Itoa(item.Count)})
	}
	return w.write(name, []string{labelHeader, "count"}, records)
}

// WriteStateRevenue writes the geographic revenue distribution.
func (w *CSVWriter) WriteStateRevenue(name string, points []analytics.StateRevenuePoint) error {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{
			p.State,
			formatFloat(p.Revenue),
			formatFloat(p.Lat),
			formatFloat(p.Lng),
		})
	}
	return w.write(name, []string{"state", "revenue", "lat", "lng"}, records)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
