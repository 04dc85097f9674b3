package database

import "errors"

// ErrNotFound is returned by point lookups when no record exists. Fakes
// standing in for these stores in tests return it too.
var ErrNotFound = errors.New("record not found")
