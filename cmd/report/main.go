// Command report runs the data pipeline once, prints the full-range KPI
// summary, and writes the chart series and the filtered order workbook to
// the exports directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ecomdash/internal/analytics"
	"ecomdash/internal/config"
	"ecomdash/internal/dataset"
	"ecomdash/internal/exporter"
	"ecomdash/internal/infrastructure"
)

func main() {
	dataDir := flag.String("data", "", "directory holding the source CSV files (default: config)")
	outDir := flag.String("out", "", "directory for generated reports (default: config)")
	year := flag.Int("year", 0, "restrict to one purchase year (default: all years)")
	state := flag.String("state", "", "restrict to one customer state")
	category := flag.String("category", "", "restrict to one product category (English name)")
	topN := flag.Int("top", 0, "ranking size for top categories / seller states")
	flag.Parse()

	if err := run(*dataDir, *outDir, *year, *state, *category, *topN); err != nil {
		slog.Error("report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(dataDir, outDir string, year int, state, category string, topN int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if dataDir == "" {
		dataDir = cfg.Paths.DataDir
	}
	if outDir == "" {
		outDir = cfg.Paths.ExportsDir
	}

	ctx := context.Background()
	store := dataset.NewStore(dataDir, logger)
	snap, err := store.Get(ctx)
	if err != nil {
		return err
	}

	sel := analytics.DefaultSelection(snap.Table)
	sel.Year = year
	if state != "" {
		sel.State = state
	}
	if category != "" {
		sel.Category = category
	}
	sel.TopN = analytics.ClampTopN(topN)

	rows := analytics.Apply(snap.Table, sel)
	summary, err := analytics.Summarize(rows)
	if err != nil {
		return fmt.Errorf("no rows match the requested filters")
	}

	logger.Info("summary",
		slog.Float64("total_revenue", summary.TotalRevenue),
		slog.Int("total_orders", summary.TotalOrders),
		slog.Float64("avg_review_score", summary.AvgReviewScore),
		slog.Int("enriched_rows", len(rows)))

	csvw := exporter.NewCSVWriter(outDir, logger)
	if err := csvw.WriteMonthlyRevenue("monthly_revenue.csv", analytics.MonthlyRevenue(rows)); err != nil {
		return err
	}
	if err := csvw.WriteStateRevenue("state_revenue.csv", analytics.StateRevenue(rows, snap.Centroids)); err != nil {
		return err
	}
	if err := csvw.WriteCounts("payment_types.csv", "payment_type", analytics.PaymentTypeCounts(rows)); err != nil {
		return err
	}
	if err := csvw.WriteCounts("delivery_status.csv", "delivery_status", analytics.DeliveryStatusCounts(rows)); err != nil {
		return err
	}
	if err := csvw.WriteRevenueRanking("top_categories.csv", "category", analytics.TopCategories(rows, sel.TopN)); err != nil {
		return err
	}
	if err := csvw.WriteRevenueRanking("top_seller_states.csv", "seller_state", analytics.TopSellerStates(rows, sel.TopN)); err != nil {
		return err
	}

	workbookPath := filepath.Join(outDir, "orders.xlsx")
	f, err := os.Create(workbookPath)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	defer f.Close()
	if err := exporter.WriteOrdersWorkbook(f, rows, summary); err != nil {
		return err
	}

	logger.Info("reports written", slog.String("dir", outDir))
	return nil
}
