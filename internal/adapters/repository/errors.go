package repository

import "errors"

// Sentinel kinds for item store errors.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrItemExists      = errors.New("item already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrStageOrder      = errors.New("stage advancement out of order")
	ErrInvalidLimit    = errors.New("invalid list limit")
)
