package availability

import "errors"

var (
	// ErrInvalidRange indicates a missing date, an end before the start, or a
	// span wider than MaxSpanDays.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidInput indicates a missing user or group id.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence indicates the unit of work could not be committed.
	// The store is left unchanged.
	ErrPersistence = errors.New("availability store failure")

	// ErrIntervalNotFound indicates the interval doesn't exist for the pair.
	ErrIntervalNotFound = errors.New("availability interval not found")

	// ErrLocked indicates the pair's advisory lock could not be acquired.
	ErrLocked = errors.New("availability is locked by a concurrent change")
)
