package types

import "errors"

// ThoughtRepository stores thoughts keyed by their public ID.
// Callers never see storage handles.
type ThoughtRepository interface {
	// Save creates the thought on first save of its ID and updates it in
	// place afterwards. Creating an ID the IDAllocator has not handed out
	// yet reserves it, so the allocator never issues it again.
	// Returns ErrConnection on storage failure.
	Save(t Thought) error

	// Get returns the thought with the given ID.
	// Returns ErrNotFound if no thought exists with that ID.
	Get(id ThoughtID) (Thought, error)

	// GetAll returns every readable thought ordered by ID. Records that
	// cannot be decoded are skipped. An empty store yields an empty slice.
	GetAll() ([]Thought, error)

	// Delete removes the thought with the given ID.
	// Returns ErrNotFound if no thought exists with that ID.
	Delete(id ThoughtID) error
}

// AreaOfLifeRepository stores areas of life keyed by their public ID.
type AreaOfLifeRepository interface {
	Save(a AreaOfLife) error
	Get(id AreaOfLifeID) (AreaOfLife, error)
	GetAll() ([]AreaOfLife, error)

	// Delete removes the area of life and strips its ID from every thought
	// that references it.
	Delete(id AreaOfLifeID) error
}

// IDAllocator hands out public IDs. IDs are strictly increasing per kind
// and never reused, including across restarts.
type IDAllocator interface {
	NewThoughtID() (ThoughtID, error)
	NewAreaOfLifeID() (AreaOfLifeID, error)
}

// Repository errors. Every storage failure crossing the repository boundary
// wraps exactly one of ErrNotFound or ErrConnection.
var (
	ErrNotFound   = errors.New("entity not found")
	ErrConnection = errors.New("storage connection failed")
	ErrNewID      = errors.New("cannot allocate ID")
	ErrInvalidID  = errors.New("invalid entity ID")
)

// Validation errors.
var (
	ErrInvalidTitle = errors.New("invalid title")
	ErrInvalidName  = errors.New("invalid name")
)
