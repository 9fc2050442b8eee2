package graph

import "errors"

var (
	// ErrInvalidInput is returned for missing ids, malformed payloads,
	// unknown relation types and deep patches that are not plain JSON.
	ErrInvalidInput = errors.New("cellgraph: invalid input")

	// ErrSelfLoop is returned when source and target are the same cell.
	ErrSelfLoop = errors.New("cellgraph: source and target are the same cell")

	// ErrCellNotFound is returned when a referenced cell does not exist.
	ErrCellNotFound = errors.New("cellgraph: cell not found")

	// ErrRelationNotFound is returned when a disconnect finds no relation.
	ErrRelationNotFound = errors.New("cellgraph: relation not found")

	// ErrDuplicateRelation is returned when a cell already holds a user
	// relation of the requested type.
	ErrDuplicateRelation = errors.New("cellgraph: relation already exists")

	// ErrNotBound is returned when no collections are bound to the engine.
	ErrNotBound = errors.New("cellgraph: engine is not bound to a workspace")

	// ErrNotReading is returned by EndReading without a matching StartReading.
	ErrNotReading = errors.New("cellgraph: no reading session for cell")
)
