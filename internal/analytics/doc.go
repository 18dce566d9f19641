// Package analytics is the filter and aggregation layer of the dashboard.
// It applies a Selection value to the immutable enriched table, computes the
// KPI summary, and builds the per-chart data series. All functions are pure
// over their inputs; the only mutable state in the system is the Selection,
// and it is owned by the caller.
package analytics
