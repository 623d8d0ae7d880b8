package smoke

import "errors"

// Error constants.
var (
	ErrChecksFailed    = errors.New("smoke checks failed")
	ErrUnknownFlavor   = errors.New("unknown flavor")
	ErrUnexpected      = errors.New("unexpected response")
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrNoPlans         = errors.New("no plans found")
	ErrAssertion       = errors.New("assertion failed")
	ErrUnknownVariable = errors.New("unknown variable")
)
