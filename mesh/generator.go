package mesh

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultWallThickness is the thickness given to generated walls.
	DefaultWallThickness = 0.1
	// DefaultRoomName names the single room of a generated plan.
	DefaultRoomName = "Main Room"
	// DefaultPlanTitle titles plans created without one.
	DefaultPlanTitle = "Scanned Room"
)

// GenerateFloorPlan builds a rectangular plan centered on the origin from
// the room dimensions, carrying every door and window feature over as an
// opening. It returns nil when dims is nil.
func GenerateFloorPlan(features []ArchitecturalFeature, dims *RoomDimensions) *FloorPlan {
	if dims == nil {
		return nil
	}

	hw, hl := dims.Width/2, dims.Length/2
	corners := []Point2{
		{X: -hw, Y: -hl},
		{X: hw, Y: -hl},
		{X: hw, Y: hl},
		{X: -hw, Y: hl},
	}

	// front, right, back, left
	walls := make([]Wall, 0, len(corners))
	for i, start := range corners {
		walls = append(walls, Wall{
			ID:        uuid.NewString(),
			Start:     start,
			End:       corners[(i+1)%len(corners)],
			Thickness: DefaultWallThickness,
			Height:    dims.Height,
		})
	}

	var openings []Opening
	for _, f := range features {
		var kind OpeningKind
		switch f.Type {
		case FeatureDoor:
			kind = OpeningDoor
		case FeatureWindow:
			kind = OpeningWindow
		default:
			continue
		}
		openings = append(openings, Opening{
			ID:       uuid.NewString(),
			Position: f.Position.FloorProjection(),
			Width:    f.Dimensions.X,
			Kind:     kind,
		})
	}

	return &FloorPlan{
		ID:        uuid.NewString(),
		Title:     DefaultPlanTitle,
		CreatedAt: time.Now().UTC(),
		Rooms: []Room{{
			ID:        uuid.NewString(),
			Name:      DefaultRoomName,
			Corners:   corners,
			Perimeter: 2 * (dims.Width + dims.Length),
		}},
		Walls:    walls,
		Openings: openings,
		Scale:    1.0,
		Bounds: BoundingBox{
			Min: Point3{X: -hw, Y: 0, Z: -hl},
			Max: Point3{X: hw, Y: dims.Height, Z: hl},
		},
	}
}
