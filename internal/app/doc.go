// Package app wires the dashboard backend together: configuration, logging,
// OpenTelemetry, the dataset store, the websocket hub, the services, the chi
// router, and the HTTP server lifecycle.
package app
