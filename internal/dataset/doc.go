// Package dataset implements the data-preparation pipeline for the
// e-commerce dashboard: it reads the nine raw CSV tables, inner-joins them
// into one denormalized order-level table, derives the time and
// delivery-performance features, and aggregates the per-state geolocation
// centroids.
//
// The pipeline output is immutable. Store memoizes it behind an explicit
// cache keyed on a BLAKE2b fingerprint of the source files, with on-demand
// invalidation.
package dataset
