package mesh

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// NewRoom creates a room with a fresh ID and a perimeter derived from its
// corners.
func NewRoom(name string, corners []Point2) Room {
	return Room{
		ID:        uuid.NewString(),
		Name:      name,
		Corners:   slices.Clone(corners),
		Perimeter: PolygonPerimeter(corners),
	}
}

// NewFloorPlan creates an empty plan with a fresh ID.
func NewFloorPlan(title string) *FloorPlan {
	if title == "" {
		title = DefaultPlanTitle
	}
	return &FloorPlan{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
		Scale:     1.0,
	}
}

// SamplePlan returns the demo plan: one 5 m x 4 m living room.
func SamplePlan() *FloorPlan {
	p := NewFloorPlan("Sample Plan")
	p.Rooms = []Room{NewRoom("Living", []Point2{{0, 0}, {5, 0}, {5, 4}, {0, 4}})}
	p.Bounds = BoundingBox{Max: Point3{X: 5, Z: 4}}
	return p
}

// Clone returns a deep copy of the plan.
func (p *FloorPlan) Clone() *FloorPlan {
	if p == nil {
		return nil
	}
	c := *p
	c.Rooms = make([]Room, len(p.Rooms))
	for i, r := range p.Rooms {
		r.Corners = slices.Clone(r.Corners)
		c.Rooms[i] = r
	}
	c.Walls = slices.Clone(p.Walls)
	c.Openings = slices.Clone(p.Openings)
	return &c
}

// WithTitle returns a copy of the plan with a new title.
func (p *FloorPlan) WithTitle(title string) *FloorPlan {
	c := p.Clone()
	c.Title = title
	return c
}

// WithRoom returns a copy of the plan with the room appended.
func (p *FloorPlan) WithRoom(r Room) *FloorPlan {
	c := p.Clone()
	r.Corners = slices.Clone(r.Corners)
	c.Rooms = append(c.Rooms, r)
	return c
}

// AddRoom returns a copy of the plan with a default 3 m x 3 m room appended.
// An empty name becomes "New Room".
func (p *FloorPlan) AddRoom(name string) *FloorPlan {
	if name == "" {
		name = "New Room"
	}
	return p.WithRoom(NewRoom(name, []Point2{{0, 0}, {3, 0}, {3, 3}, {0, 3}}))
}

// AllCorners returns every room corner in room order.
func (p *FloorPlan) AllCorners() []Point2 {
	var corners []Point2
	for _, r := range p.Rooms {
		corners = append(corners, r.Corners...)
	}
	return corners
}

// TotalArea sums the area of every room.
func (p *FloorPlan) TotalArea() float64 {
	var total float64
	for _, r := range p.Rooms {
		total += r.Area()
	}
	return total
}

// Subtitle renders the list-row summary, e.g. "2 rooms • 31.5 m²".
func (p *FloorPlan) Subtitle(units Units) string {
	noun := "rooms"
	if len(p.Rooms) == 1 {
		noun = "room"
	}
	return fmt.Sprintf("%d %s • %.1f %s", len(p.Rooms), noun, p.TotalArea()*units.AreaFactor(), units.AreaSuffix())
}

// SizeLabel buckets a floor area in square meters.
func SizeLabel(area float64) string {
	switch {
	case area < 15:
		return "Small Room"
	case area < 30:
		return "Medium Room"
	default:
		return "Large Room"
	}
}
