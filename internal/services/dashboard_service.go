package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"ecomdash/internal/analytics"
	"ecomdash/internal/config"
	"ecomdash/internal/dataset"
	"ecomdash/internal/exporter"
)

// ReloadNotifier receives dataset lifecycle events. The websocket hub
// implements it; a nil notifier is legal.
type ReloadNotifier interface {
	NotifyDatasetReloaded(fingerprint string, rows int)
}

// DashboardService exposes the filtered dashboard views over the memoized
// dataset. All methods are safe for concurrent use: the enriched table is
// immutable and every Selection is caller-owned.
type DashboardService struct {
	store    *dataset.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier ReloadNotifier
}

// NewDashboardService creates a dashboard service over the store.
func NewDashboardService(store *dataset.Store, cfg *config.Config, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// SetReloadNotifier wires the reload event sink.
func (s *DashboardService) SetReloadNotifier(n ReloadNotifier) {
	s.notifier = n
}

// snapshot fetches the current dataset snapshot, loading it on first use.
func (s *DashboardService) snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	return s.store.Get(ctx)
}

// filtered applies the selection and maps an empty result to
// ErrNoRowsForFilter.
func (s *DashboardService) filtered(ctx context.Context, sel analytics.Selection) ([]dataset.EnrichedRow, *dataset.Snapshot, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows := analytics.Apply(snap.Table, sel)
	if len(rows) == 0 {
		return nil, nil, ErrNoRowsForFilter
	}
	return rows, snap, nil
}

// FilterOptions returns the legal values for each filter control plus the
// default full-range selection.
func (s *DashboardService) FilterOptions(ctx context.Context) (analytics.FilterOptions, analytics.Selection, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return analytics.FilterOptions{}, analytics.Selection{}, err
	}
	return analytics.Options(snap.Table), analytics.DefaultSelection(snap.Table), nil
}

// Summary computes the KPI summary for the selection.
func (s *DashboardService) Summary(ctx context.Context, sel analytics.Selection) (analytics.Summary, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return analytics.Summary{}, err
	}
	summary, err := analytics.Summarize(rows)
	if errors.Is(err, analytics.ErrNoRows) {
		return analytics.Summary{}, ErrNoRowsForFilter
	}
	return summary, err
}

// StateRevenue returns the geographic revenue distribution.
func (s *DashboardService) StateRevenue(ctx context.Context, sel analytics.Selection) ([]analytics.StateRevenuePoint, error) {
	rows, snap, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.StateRevenue(rows, snap.Centroids), nil
}

// MonthlyRevenue returns the monthly revenue series.
func (s *DashboardService) MonthlyRevenue(ctx context.Context, sel analytics.Selection) ([]analytics.MonthRevenue, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.MonthlyRevenue(rows), nil
}

// RevenueHeatmap returns the weekday-by-hour revenue matrix.
func (s *DashboardService) RevenueHeatmap(ctx context.Context, sel analytics.Selection) (analytics.Heatmap, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return analytics.Heatmap{}, err
	}
	return analytics.RevenueHeatmap(rows), nil
}

// PaymentTypeCounts returns payment method usage.
func (s *DashboardService) PaymentTypeCounts(ctx context.Context, sel analytics.Selection) ([]analytics.CountItem, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.PaymentTypeCounts(rows), nil
}

// DeliveryStatusCounts returns delivery promise accuracy counts.
func (s *DashboardService) DeliveryStatusCounts(ctx context.Context, sel analytics.Selection) ([]analytics.CountItem, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.DeliveryStatusCounts(rows), nil
}

// DeliveryTimeByScore returns delivery-time box statistics per review score.
func (s *DashboardService) DeliveryTimeByScore(ctx context.Context, sel analytics.Selection) ([]analytics.ScoreBoxStats, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.DeliveryTimeByScore(rows), nil
}

// TopCategories returns the revenue ranking by product category.
func (s *DashboardService) TopCategories(ctx context.Context, sel analytics.Selection) ([]analytics.RevenueItem, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.TopCategories(rows, analytics.ClampTopN(sel.TopN)), nil
}

// TopSellerStates returns the revenue ranking by seller state.
func (s *DashboardService) TopSellerStates(ctx context.Context, sel analytics.Selection) ([]analytics.RevenueItem, error) {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.TopSellerStates(rows, analytics.ClampTopN(sel.TopN)), nil
}

// ExportOrders writes the filtered enriched table and its KPI summary as an
// Excel workbook to w.
func (s *DashboardService) ExportOrders(ctx context.Context, sel analytics.Selection, w io.Writer) error {
	rows, _, err := s.filtered(ctx, sel)
	if err != nil {
		return err
	}
	summary, err := analytics.Summarize(rows)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "exporting filtered orders",
		slog.Int("rows", len(rows)))

	return exporter.WriteOrdersWorkbook(w, rows, summary)
}

// Reload invalidates the cache and loads a fresh snapshot, notifying any
// connected dashboard clients.
func (s *DashboardService) Reload(ctx context.Context) (string, int, error) {
	s.store.Invalidate()
	snap, err := s.store.Get(ctx)
	if err != nil {
		return "", 0, err
	}

	s.logger.InfoContext(ctx, "dataset reloaded",
		slog.String("fingerprint", snap.Fingerprint),
		slog.Int("rows", snap.Table.Len()))

	if s.notifier != nil {
		s.notifier.NotifyDatasetReloaded(snap.Fingerprint, snap.Table.Len())
	}
	return snap.Fingerprint, snap.Table.Len(), nil
}
