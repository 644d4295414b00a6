package storage

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// thoughtModel is a thought record as stored. IDs are decimal strings.
type thoughtModel struct {
	ThoughtID   string   `json:"thought_id"`
	Title       string   `json:"title"`
	AreasOfLife []string `json:"areas_of_life"`
}

// areaOfLifeModel is an area of life record as stored.
type areaOfLifeModel struct {
	AreaOfLifeID string `json:"area_of_life_id"`
	Name         string `json:"name"`
}

func newThoughtModel(t types.Thought) thoughtModel {
	areas := make([]string, 0, len(t.AreasOfLife))
	for _, a := range t.AreasOfLife {
		areas = append(areas, a.String())
	}
	return thoughtModel{
		ThoughtID:   t.ID.String(),
		Title:       t.Title,
		AreasOfLife: areas,
	}
}

// toThought converts the model into a Thought with the given ID.
// Area references that fail to parse are logged and dropped.
func (m thoughtModel) toThought(id types.ThoughtID, logger *zap.Logger) types.Thought {
	areas := make([]types.AreaOfLifeID, 0, len(m.AreasOfLife))
	for _, raw := range m.AreasOfLife {
		a, err := types.ParseAreaOfLifeID(raw)
		if err != nil {
			logger.Warn("dropping unparseable area of life reference",
				zap.Stringer("thought_id", id), zap.Error(err))
			continue
		}
		areas = append(areas, a)
	}
	return types.NewThought(id, m.Title, areas)
}

func newAreaOfLifeModel(a types.AreaOfLife) areaOfLifeModel {
	return areaOfLifeModel{
		AreaOfLifeID: a.ID.String(),
		Name:         a.Name,
	}
}

// thoughtRecordID extracts the embedded public ID from a thought record body.
func thoughtRecordID(body json.RawMessage) (uint64, error) {
	var m thoughtModel
	if err := json.Unmarshal(body, &m); err != nil {
		return 0, fmt.Errorf("decoding thought record: %w", err)
	}
	id, err := types.ParseThoughtID(m.ThoughtID)
	return uint64(id), err
}

// areaOfLifeRecordID extracts the embedded public ID from an area of life
// record body.
func areaOfLifeRecordID(body json.RawMessage) (uint64, error) {
	var m areaOfLifeModel
	if err := json.Unmarshal(body, &m); err != nil {
		return 0, fmt.Errorf("decoding area of life record: %w", err)
	}
	id, err := types.ParseAreaOfLifeID(m.AreaOfLifeID)
	return uint64(id), err
}
