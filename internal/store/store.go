package store

import (
	"errors"

	"PriceSentinel/internal/model"
)

var (
	// ErrStoreUnavailable means the underlying log could not be opened, read or written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicate means an observation with the same timestamp is already logged.
	ErrDuplicate = errors.New("duplicate observation timestamp")
)

// ReadResult is a full scan of the log. Skipped counts corrupt records that
// were dropped during the scan.
type ReadResult struct {
	Series  model.Series
	Skipped int
}

// Store is an append-only log of price observations.
type Store interface {
	Append(obs model.Observation) error
	ReadAll() (ReadResult, error)
}
