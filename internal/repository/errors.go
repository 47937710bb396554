// Package repository holds the sentinel errors shared by every storage
// backend, so domain services can branch on them without knowing the driver.
package repository

import "errors"

var (
	ErrNotFound = errors.New("no matching row")
	// ErrConflict reports a duplicate key, such as a repeated membership.
	ErrConflict = errors.New("duplicate key")
	// ErrUnknownGroup reports a write that references a missing group.
	ErrUnknownGroup = errors.New("group does not exist")
)
