package types

// Name length bounds, counted in characters.
const (
	NameMinLen = 5
	NameMaxLen = 30
)

// AreaOfLife is a named category that thoughts can reference.
type AreaOfLife struct {
	ID   AreaOfLifeID `json:"id"`
	Name string       `json:"name"`
}
