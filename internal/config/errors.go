package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidConfig reports a value that loaded fine but fails validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig reports an unreadable file or an undecodable value.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownDriver reports a store_driver or cache_driver outside the supported set.
	ErrUnknownDriver = errors.New("unknown driver")
)
