package services

import "errors"

// ErrNoRowsForFilter indicates the current selection matched no rows.
// Recoverable: the dashboard shows a warning and waits for a different
// selection.
var ErrNoRowsForFilter = errors.New("no rows for the current filter selection")
