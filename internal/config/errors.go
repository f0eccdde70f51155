package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	ErrMissingToken = fmt.Errorf("%w: telegram token is not set", ErrInvalidConfig)
)
