package taxonomy

import "errors"

// Lookup and structure errors
var (
	// ErrNotFound indicates that no node or item matches the given id.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates that a sibling with the same name
	// already exists under the target parent.
	ErrDuplicateName = errors.New("a category with this name already exists here")

	// ErrCycle indicates that a move would make a node its own ancestor
	// (or its own parent).
	ErrCycle = errors.New("move would create a cycle")
)

// Resource errors surfaced during cascade deletion
var (
	// ErrResourceLocked indicates that a thumbnail file is held open by
	// another process and cannot be removed.
	ErrResourceLocked = errors.New("file is in use by another process")

	// ErrPermissionDenied indicates that a thumbnail file could not be
	// removed due to access rights.
	ErrPermissionDenied = errors.New("permission denied")
)
