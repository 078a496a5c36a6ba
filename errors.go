package fastupdate

import "errors"

var (
	// ErrNoFields is returned when the field-name list is empty.
	ErrNoFields = errors.New("no fields to update")
	// ErrNoFallback is returned when non-local fields are requested but
	// no fallback updater is configured.
	ErrNoFallback = errors.New("non-local fields require a fallback updater")
)
