package types

import (
	"fmt"
	"strconv"
)

// ThoughtID is the public identifier of a Thought. IDs are assigned once by
// an IDAllocator and never reused.
type ThoughtID uint64

// AreaOfLifeID is the public identifier of an AreaOfLife.
type AreaOfLifeID uint64

// String returns the decimal representation used on disk.
func (id ThoughtID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// String returns the decimal representation used on disk.
func (id AreaOfLifeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseThoughtID parses a decimal thought ID.
// Returns ErrInvalidID if s is not an unsigned 64-bit decimal.
func ParseThoughtID(s string) (ThoughtID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: thought id %q", ErrInvalidID, s)
	}
	return ThoughtID(n), nil
}

// ParseAreaOfLifeID parses a decimal area of life ID.
// Returns ErrInvalidID if s is not an unsigned 64-bit decimal.
func ParseAreaOfLifeID(s string) (AreaOfLifeID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: area of life id %q", ErrInvalidID, s)
	}
	return AreaOfLifeID(n), nil
}
