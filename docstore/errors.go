package docstore

import "errors"

var (
	// ErrNotFound is returned when no document exists for the key.
	ErrNotFound = errors.New("cellgraph: document not found")

	// ErrConflict is returned when a write's revision does not match the stored one,
	// or when creating a document whose id already exists.
	ErrConflict = errors.New("cellgraph: document revision conflict")

	// ErrInvalidField is returned when a selector references a malformed field name.
	ErrInvalidField = errors.New("cellgraph: invalid selector field")

	// ErrMissingID is returned when writing a document without an id.
	ErrMissingID = errors.New("cellgraph: document has no id")
)
