package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrFlavorDisabled = errors.New("operation belongs to the other server flavor")
	ErrUnknownFlavor  = errors.New("unknown server flavor")
)
