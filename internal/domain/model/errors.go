package model

import "errors"

// ErrNotFound reports that no todo matches the requested id.
var ErrNotFound = errors.New("todo not found")
