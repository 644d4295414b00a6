package types

import "slices"

// Title length bounds, counted in characters.
const (
	TitleMinLen = 3
	TitleMaxLen = 80
)

// Thought is a titled note, optionally tagged with areas of life.
type Thought struct {
	ID    ThoughtID `json:"id"`
	Title string    `json:"title"`
	// AreasOfLife is a set: sorted ascending, no duplicates.
	AreasOfLife []AreaOfLifeID `json:"areas_of_life"`
}

// NewThought returns a Thought with areas normalized into set form.
// The title is stored as given; length checks happen in the use-case layer.
func NewThought(id ThoughtID, title string, areas []AreaOfLifeID) Thought {
	return Thought{
		ID:          id,
		Title:       title,
		AreasOfLife: normalizeAreas(areas),
	}
}

// HasAreaOfLife reports whether the thought references the given area.
func (t Thought) HasAreaOfLife(id AreaOfLifeID) bool {
	_, found := slices.BinarySearch(t.AreasOfLife, id)
	return found
}

// WithoutAreaOfLife returns a copy of the thought with id removed from its
// area set. Title and ID are unchanged.
func (t Thought) WithoutAreaOfLife(id AreaOfLifeID) Thought {
	areas := make([]AreaOfLifeID, 0, len(t.AreasOfLife))
	for _, a := range t.AreasOfLife {
		if a != id {
			areas = append(areas, a)
		}
	}
	return Thought{ID: t.ID, Title: t.Title, AreasOfLife: areas}
}

// normalizeAreas sorts and de-duplicates area IDs. It always returns a
// non-nil slice so empty sets compare and encode consistently.
func normalizeAreas(areas []AreaOfLifeID) []AreaOfLifeID {
	out := make([]AreaOfLifeID, len(areas))
	copy(out, areas)
	slices.Sort(out)
	return slices.Compact(out)
}
