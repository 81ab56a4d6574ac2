package scanner

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by CatalogStore lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrScanInProgress is returned when a second scan targets a root that is
// already being reconciled. Scans of different roots run independently.
var ErrScanInProgress = errors.New("scan already in progress for this root")

// ScanError is fatal: the scan root itself is unreadable or does not exist.
// It aborts the pass and is never retried automatically.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan root %q unreadable: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
