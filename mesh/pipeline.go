package mesh

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScanResult is the outcome of reconstructing one mesh batch. Samples are
// kept for the live session only and are not serialized, so a decoded
// result has none.
type ScanResult struct {
	ID         string                 `json:"id"`
	Samples    []MeshSample           `json:"-"`
	Features   []ArchitecturalFeature `json:"features"`
	Dimensions *RoomDimensions        `json:"dimensions,omitempty"`
	FloorPlan  *FloorPlan             `json:"floorPlan,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ProcessScan runs classify, infer and generate over the batch. Dimensions
// come from the batch when given, otherwise from the samples' world
// bounds. When neither is available the result still carries the features
// and the error wraps ErrMissingInput.
func ProcessScan(batch MeshBatch) (*ScanResult, error) {
	id := batch.ID
	if id == "" {
		id = uuid.NewString()
	}
	result := &ScanResult{
		ID:        id,
		Samples:   batch.Samples,
		Features:  DetectFeatures(batch.Samples),
		Timestamp: time.Now().UTC(),
	}

	dims := batch.Dimensions
	if dims == nil {
		if derived, ok := DeriveDimensions(batch.Samples); ok {
			dims = &derived
		}
	}
	if dims == nil {
		logger().Warn("scan has no dimensions", "scan", id, "samples", len(batch.Samples))
		return result, fmt.Errorf("process scan %s: no room dimensions: %w", id, ErrMissingInput)
	}
	result.Dimensions = dims

	plan := GenerateFloorPlan(result.Features, dims)
	if batch.Title != "" {
		plan.Title = batch.Title
	}
	result.FloorPlan = plan

	counts := CountByType(result.Features)
	logger().Info("scan processed",
		"scan", id,
		"samples", len(batch.Samples),
		"walls", counts[FeatureWall],
		"doors", counts[FeatureDoor],
		"windows", counts[FeatureWindow],
		"area", dims.Area,
	)
	return result, nil
}

// ScanSummary is the compact description published for widgets and logs.
type ScanSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Rooms     int       `json:"rooms"`
	Area      float64   `json:"area"`
	AreaLabel string    `json:"areaLabel"`
	SizeLabel string    `json:"sizeLabel"`
	Openings  int       `json:"openings"`
	Timestamp time.Time `json:"timestamp"`
}

// Summarize describes a plan in the given units.
func Summarize(plan *FloorPlan, units Units) ScanSummary {
	area := plan.TotalArea()
	return ScanSummary{
		ID:        plan.ID,
		Title:     plan.Title,
		Rooms:     len(plan.Rooms),
		Area:      area,
		AreaLabel: fmt.Sprintf("%.1f %s", area*units.AreaFactor(), units.AreaSuffix()),
		SizeLabel: SizeLabel(area),
		Openings:  len(plan.Openings),
		Timestamp: plan.CreatedAt,
	}
}
