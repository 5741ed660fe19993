package entity

import "errors"

// Domain errors for the entity package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, entity.ErrInvalidField) {
//	    // handle validation failure
//	}
var (
	// ErrInvalidField is returned when a field fails its validator.
	ErrInvalidField = errors.New("entity: invalid field")

	// ErrMissingField is returned when a required field has no value and
	// no default.
	ErrMissingField = errors.New("entity: missing field")

	// ErrUnknownReference is returned when a field references another
	// entity that cannot be resolved (e.g. a subscription topic with no
	// matching publication).
	ErrUnknownReference = errors.New("entity: unknown reference")
)
