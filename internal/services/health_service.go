package services

import (
	"context"
	"log/slog"
	"time"

	"ecomdash/internal/dataset"
)

// HealthStatus is the health report for the service and its dataset.
type HealthStatus struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	DatasetOK   bool      `json:"dataset_ok"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Rows        int       `json:"rows,omitempty"`
}

// HealthService reports liveness and dataset readiness.
type HealthService struct {
	store   *dataset.Store
	version string
	logger  *slog.Logger
}

// NewHealthService creates a health service.
func NewHealthService(store *dataset.Store, version string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{store: store, version: version, logger: logger}
}

// Check returns the current health. The dataset is reported ready only when
// a snapshot is cached; a cold cache is "degraded", not an error, since the
// first dashboard request will trigger the load.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	}
	if fp, rows, ok := s.store.Loaded(); ok {
		status.DatasetOK = true
		status.Fingerprint = fp
		status.Rows = rows
	} else {
		status.Status = "degraded"
	}
	return status
}
