package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// FloorNormalThreshold is the minimum dot(normal, up) for a floor.
	FloorNormalThreshold = 0.8
	// CeilingNormalThreshold is the minimum dot(normal, down) for a ceiling.
	CeilingNormalThreshold = 0.8
	// WallVerticalLimit is the maximum |normal.y| for a wall.
	WallVerticalLimit = 0.5
	// SurfaceConfidence is assigned to every classified surface.
	SurfaceConfidence = 0.8
)

var (
	upAxis   = mgl64.Vec3{0, 1, 0}
	downAxis = mgl64.Vec3{0, -1, 0}
)

// Classify labels every sample as floor, ceiling or wall. One feature is
// emitted per sample, in input order. Samples are never modified.
func Classify(samples []MeshSample) []ArchitecturalFeature {
	features := make([]ArchitecturalFeature, 0, len(samples))
	for _, s := range samples {
		box := WorldBounds(s)
		features = append(features, ArchitecturalFeature{
			Type:        ClassifySurface(AverageNormal(s.Normals)),
			Position:    box.Center(),
			Dimensions:  box.Size(),
			Confidence:  SurfaceConfidence,
			BoundingBox: box,
		})
	}
	return features
}

// ClassifySurface applies the orientation rules in order: floor, ceiling,
// wall. Sloped surfaces that match nothing fall back to wall.
func ClassifySurface(n mgl64.Vec3) FeatureType {
	switch {
	case n.Dot(upAxis) > FloorNormalThreshold:
		return FeatureFloor
	case n.Dot(downAxis) > CeilingNormalThreshold:
		return FeatureCeiling
	case math.Abs(n[1]) < WallVerticalLimit:
		return FeatureWall
	default:
		return FeatureWall
	}
}

// AverageNormal returns the normalized mean of the given normals. With no
// normals it returns up. Normals that cancel out return the zero vector,
// which ClassifySurface treats as a wall.
func AverageNormal(normals []mgl64.Vec3) mgl64.Vec3 {
	if len(normals) == 0 {
		return upAxis
	}
	var sum mgl64.Vec3
	for _, n := range normals {
		sum = sum.Add(n)
	}
	if sum.Len() < 1e-12 {
		return mgl64.Vec3{}
	}
	return sum.Normalize()
}

// WorldBounds transforms the sample's vertices to world space and returns
// their bounding box.
func WorldBounds(s MeshSample) BoundingBox {
	world := make([]mgl64.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		world[i] = s.Transform.Mul4x1(v.Vec4(1)).Vec3()
	}
	return NewBoundingBox(world)
}
