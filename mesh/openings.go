package mesh

// Heuristic thresholds for opening inference. Heights are in meters above
// the floor at y = 0.
const (
	DoorMaxBaseHeight = 0.1
	DoorMinWallHeight = 1.8
	WindowMinHeight   = 0.5
	WindowMaxHeight   = 2.0

	DoorWidth        = 0.8
	DoorHeight       = 2.0
	WindowWidth      = 1.0
	WindowHeight     = 1.0
	OpeningDepth     = 0.1
	DoorConfidence   = 0.6
	WindowConfidence = 0.5
)

// InferOpenings returns the door and window features implied by the wall
// features in the input. The input slice is not modified. The door and
// window rules are evaluated independently for each wall.
func InferOpenings(features []ArchitecturalFeature) []ArchitecturalFeature {
	var openings []ArchitecturalFeature
	for _, f := range features {
		if f.Type != FeatureWall {
			continue
		}
		if f.Position.Y < DoorMaxBaseHeight && f.Dimensions.Y > DoorMinWallHeight {
			openings = append(openings, doorAt(f.Position))
		}
		if f.Position.Y > WindowMinHeight && f.Position.Y < WindowMaxHeight {
			openings = append(openings, windowAt(f.Position))
		}
	}
	return openings
}

func doorAt(wall Point3) ArchitecturalFeature {
	pos := Point3{X: wall.X, Y: 0, Z: wall.Z}
	return ArchitecturalFeature{
		Type:       FeatureDoor,
		Position:   pos,
		Dimensions: Point3{X: DoorWidth, Y: DoorHeight, Z: OpeningDepth},
		Confidence: DoorConfidence,
		BoundingBox: BoundingBox{
			Min: Point3{X: pos.X - DoorWidth/2, Y: 0, Z: pos.Z - OpeningDepth/2},
			Max: Point3{X: pos.X + DoorWidth/2, Y: DoorHeight, Z: pos.Z + OpeningDepth/2},
		},
	}
}

func windowAt(wall Point3) ArchitecturalFeature {
	return ArchitecturalFeature{
		Type:       FeatureWindow,
		Position:   wall,
		Dimensions: Point3{X: WindowWidth, Y: WindowHeight, Z: OpeningDepth},
		Confidence: WindowConfidence,
		BoundingBox: BoundingBox{
			Min: Point3{X: wall.X - WindowWidth/2, Y: wall.Y - WindowHeight/2, Z: wall.Z - OpeningDepth/2},
			Max: Point3{X: wall.X + WindowWidth/2, Y: wall.Y + WindowHeight/2, Z: wall.Z + OpeningDepth/2},
		},
	}
}

// DetectFeatures classifies the samples and appends the inferred openings.
func DetectFeatures(samples []MeshSample) []ArchitecturalFeature {
	features := Classify(samples)
	return append(features, InferOpenings(features)...)
}
