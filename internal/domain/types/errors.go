package types

import "errors"

// ErrUnknownSort rejects sort values outside rank and newest.
var ErrUnknownSort = errors.New("unknown sort order")
