package repository

import (
	"errors"

	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
)

// Sentinel kinds for repository errors.
var (
	ErrInvalidLimit  = errors.New("invalid top users limit")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// StoreError reports a failed read or write against the underlying database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is or wraps a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func storeError(op string, err error) error {
	metrics.RecordStoreError(op)
	return &StoreError{Op: op, Err: err}
}
