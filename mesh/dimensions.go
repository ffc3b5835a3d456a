package mesh

import "math"

const (
	// MinRoomExtent floors width, length, area and volume.
	MinRoomExtent = 1.0
	// MinRoomHeight floors the derived room height.
	MinRoomHeight = 2.0
)

// DeriveDimensions measures the union world bounding box of all samples.
// It reports false when the samples carry no vertices at all, so callers can
// treat the batch as lacking dimensions.
func DeriveDimensions(samples []MeshSample) (RoomDimensions, bool) {
	var (
		box   BoundingBox
		found bool
	)
	for _, s := range samples {
		if len(s.Vertices) == 0 {
			continue
		}
		b := WorldBounds(s)
		if !found {
			box, found = b, true
			continue
		}
		box = box.Union(b)
	}
	if !found {
		return RoomDimensions{}, false
	}

	size := box.Size()
	return RoomDimensions{
		Width:  math.Max(size.X, MinRoomExtent),
		Length: math.Max(size.Z, MinRoomExtent),
		Height: math.Max(size.Y, MinRoomHeight),
		Area:   math.Max(size.X*size.Z, MinRoomExtent),
		Volume: math.Max(size.X*size.Y*size.Z, MinRoomExtent),
	}, true
}

// ScanProgress maps a sample count to a coverage fraction in [0, 1].
func ScanProgress(sampleCount int) float64 {
	return math.Min(float64(sampleCount)/scanSamplesForFullCoverage, 1)
}

const scanSamplesForFullCoverage = 20.0
