package adapter

import "errors"

var (
	// ErrNotFound indicates no entity matched the given identifier.
	ErrNotFound = errors.New("adapter: entity not found")

	// ErrAmbiguous indicates more than one entity matched a natural
	// identifier that should be unique. This is an integrity fault, not
	// a caller error.
	ErrAmbiguous = errors.New("adapter: multiple entities share one id")

	// ErrDuplicate indicates a create collided with an existing entity
	// and the kind allows neither duplicates nor upsert redirects.
	ErrDuplicate = errors.New("adapter: entity already exists")

	// ErrUpdateAll is returned by UpdateAll unconditionally.
	ErrUpdateAll = errors.New("adapter: collection-wide update is not supported")
)
