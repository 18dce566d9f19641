// Package http contains the chi HTTP handlers for the dashboard data API:
// filter options, KPI summary, per-chart series, Excel export, explicit
// cache reload, and health. Handlers depend on service interfaces so tests
// can substitute mocks.
package http
