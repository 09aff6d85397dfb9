package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned by the vote ledger when an insert hits the
	// unique index on ballot token or client identity.
	ErrDuplicate = errors.New("duplicate entry")
)
