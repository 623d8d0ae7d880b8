package repository

import "github.com/okian/quicktodo/internal/domain/model"

// Sentinel kinds for store errors.
var (
	ErrNotFound = model.ErrNotFound
)
