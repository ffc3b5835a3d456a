package mesh

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// shared test fixtures
// ---------------------------------------------------------------------------

// patch returns a sample whose vertices span the given box corners and whose
// normals all point along n. The transform is identity.
func patch(min, max mgl64.Vec3, n mgl64.Vec3) MeshSample {
	return MeshSample{
		Vertices:  []mgl64.Vec3{min, max},
		Normals:   []mgl64.Vec3{n, n},
		Transform: mgl64.Ident4(),
	}
}

// roomSamples returns a floor, a ceiling and two walls of a 4 x 3 x 2.5 room
// centered on the origin.
func roomSamples() []MeshSample {
	return []MeshSample{
		patch(mgl64.Vec3{-2, 0, -1.5}, mgl64.Vec3{2, 0, 1.5}, mgl64.Vec3{0, 1, 0}),
		patch(mgl64.Vec3{-2, 2.5, -1.5}, mgl64.Vec3{2, 2.5, 1.5}, mgl64.Vec3{0, -1, 0}),
		patch(mgl64.Vec3{-2, 0, -1.5}, mgl64.Vec3{2, 2.5, -1.5}, mgl64.Vec3{0, 0, 1}),
		patch(mgl64.Vec3{2, 0, -1.5}, mgl64.Vec3{2, 2.5, 1.5}, mgl64.Vec3{-1, 0, 0}),
	}
}

// twoRoomPlan returns a plan with a 5 x 4 living room and a 3 x 2 study.
func twoRoomPlan() *FloorPlan {
	return &FloorPlan{
		ID:        "0d7f5c2e-6a8b-4c1d-9e2f-3a4b5c6d7e8f",
		Title:     "Ground Floor",
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Rooms: []Room{
			{ID: "r1", Name: "Living", Corners: []Point2{{0, 0}, {5, 0}, {5, 4}, {0, 4}}, Perimeter: 18},
			{ID: "r2", Name: "Study", Corners: []Point2{{5, 0}, {8, 0}, {8, 2}, {5, 2}}, Perimeter: 10},
		},
		Walls: []Wall{
			{ID: "w1", Start: Point2{0, 0}, End: Point2{5, 0}, Thickness: 0.1, Height: 2.5},
		},
		Openings: []Opening{
			{ID: "o1", Position: Point2{2.5, 0}, Width: 0.8, Kind: OpeningDoor},
		},
		Scale: 1,
		Bounds: BoundingBox{
			Min: Point3{X: 0, Y: 0, Z: 0},
			Max: Point3{X: 8, Y: 2.5, Z: 4},
		},
	}
}
