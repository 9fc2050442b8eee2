package workspace

import "errors"

var (
	// ErrWorkspaceNotFound is returned when no workspace has the given id.
	ErrWorkspaceNotFound = errors.New("cellgraph: workspace not found")

	// ErrNoWorkspace is returned when an operation needs an active
	// workspace before Init or Switch has succeeded.
	ErrNoWorkspace = errors.New("cellgraph: no active workspace")
)
