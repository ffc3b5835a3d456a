package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point2 is a 2D coordinate on the floor plane, in meters.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3 is a 3D world coordinate in meters, y up.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts the point to an mgl64 vector.
func (p Point3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// PointFromVec converts an mgl64 vector to a Point3.
func PointFromVec(v mgl64.Vec3) Point3 {
	return Point3{X: v[0], Y: v[1], Z: v[2]}
}

// FloorProjection drops the height axis, mapping world (x, z) to plan (x, y).
func (p Point3) FloorProjection() Point2 {
	return Point2{X: p.X, Y: p.Z}
}

// BoundingBox is an axis-aligned box. The zero value is the empty box at the
// origin and means "no data".
type BoundingBox struct {
	Min Point3 `json:"min"`
	Max Point3 `json:"max"`
}

// NewBoundingBox returns the smallest box containing all points. With no
// points it returns the zero box.
func NewBoundingBox(points []mgl64.Vec3) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{Min: PointFromVec(points[0]), Max: PointFromVec(points[0])}
	for _, p := range points[1:] {
		b = b.Extend(PointFromVec(p))
	}
	return b
}

// Extend returns a copy of the box grown to include p.
func (b BoundingBox) Extend(p Point3) BoundingBox {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
	return b
}

// Union returns the box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the per-axis extent.
func (b BoundingBox) Size() Point3 {
	return Point3{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y, Z: b.Max.Z - b.Min.Z}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point3 {
	return Point3{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// IsEmpty reports whether the box is the zero "no data" box.
func (b BoundingBox) IsEmpty() bool {
	return b == BoundingBox{}
}

// PolygonArea returns the absolute shoelace area of a closed polygon given by
// its corners in order. Fewer than three corners have zero area.
func PolygonArea(corners []Point2) float64 {
	if len(corners) < 3 {
		return 0
	}
	var sum float64
	for i, p := range corners {
		q := corners[(i+1)%len(corners)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) * 0.5
}

// PolygonPerimeter returns the length of the closed boundary through corners.
func PolygonPerimeter(corners []Point2) float64 {
	if len(corners) < 2 {
		return 0
	}
	var sum float64
	for i, p := range corners {
		q := corners[(i+1)%len(corners)]
		sum += math.Hypot(q.X-p.X, q.Y-p.Y)
	}
	return sum
}
