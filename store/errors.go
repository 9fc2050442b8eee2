package store

import "errors"

var (
	// ErrBatchIncomplete is returned when a bulk delete still has unprocessed
	// items after all retries.
	ErrBatchIncomplete = errors.New("cellgraph: batch write left unprocessed items")

	// ErrMalformedItem is returned when a table item lacks the document attribute.
	ErrMalformedItem = errors.New("cellgraph: malformed document item")
)
