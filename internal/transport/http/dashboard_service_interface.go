package http

import (
	"context"
	"io"

	"ecomdash/internal/analytics"
)

// DashboardServiceInterface defines the service contract the dashboard
// handler depends on. Tests substitute a mock.
type DashboardServiceInterface interface {
	FilterOptions(ctx context.Context) (analytics.FilterOptions, analytics.Selection, error)
	Summary(ctx context.Context, sel analytics.Selection) (analytics.Summary, error)
	StateRevenue(ctx context.Context, sel analytics.Selection) ([]analytics.StateRevenuePoint, error)
	MonthlyRevenue(ctx context.Context, sel analytics.Selection) ([]analytics.MonthRevenue, error)
	RevenueHeatmap(ctx context.Context, sel analytics.Selection) (analytics.Heatmap, error)
	PaymentTypeCounts(ctx context.Context, sel analytics.Selection) ([]analytics.CountItem, error)
	DeliveryStatusCounts(ctx context.Context, sel analytics.Selection) ([]analytics.CountItem, error)
	DeliveryTimeByScore(ctx context.Context, sel analytics.Selection) ([]analytics.ScoreBoxStats, error)
	TopCategories(ctx context.Context, sel analytics.Selection) ([]analytics.RevenueItem, error)
	TopSellerStates(ctx context.Context, sel analytics.Selection) ([]analytics.RevenueItem, error)
	ExportOrders(ctx context.Context, sel analytics.Selection, w io.Writer) error
	Reload(ctx context.Context) (fingerprint string, rows int, err error)
}
