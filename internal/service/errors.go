package service

import "errors"

// ErrInvalidPeriod is returned for a non-positive number of days.
var ErrInvalidPeriod = errors.New("period must be a positive number of days")
