package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrClosed       = errors.New("store closed")
	ErrNoDSN        = errors.New("postgres dsn is empty")
)
