package mesh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessScan_DerivesDimensions(t *testing.T) {
	result, err := ProcessScan(MeshBatch{ID: "scan-1", Samples: roomSamples()})
	require.NoError(t, err)

	assert.Equal(t, "scan-1", result.ID)
	assert.Len(t, result.Features, 6)
	require.NotNil(t, result.Dimensions)
	assert.InDelta(t, 12.0, result.Dimensions.Area, 1e-9)

	require.NotNil(t, result.FloorPlan)
	assert.Equal(t, DefaultPlanTitle, result.FloorPlan.Title)
	assert.Len(t, result.FloorPlan.Walls, 4)
	assert.Len(t, result.FloorPlan.Openings, 2)
	assert.InDelta(t, 12.0, result.FloorPlan.TotalArea(), 1e-9)
}

func TestProcessScan_BatchDimensionsWin(t *testing.T) {
	dims := NewRoomDimensions(6, 5, 3)

	result, err := ProcessScan(MeshBatch{Title: "Garage", Samples: roomSamples(), Dimensions: &dims})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "Garage", result.FloorPlan.Title)
	assert.InDelta(t, 30.0, result.FloorPlan.TotalArea(), 1e-9)
	assert.Equal(t, 3.0, result.FloorPlan.Walls[0].Height)
}

func TestProcessScan_NoInput(t *testing.T) {
	result, err := ProcessScan(MeshBatch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)

	require.NotNil(t, result)
	assert.Nil(t, result.FloorPlan)
	assert.Empty(t, result.Features)
}

func TestScanResult_JSONDropsSamples(t *testing.T) {
	result, err := ProcessScan(MeshBatch{Samples: roomSamples()})
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "vertices")

	var decoded ScanResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded.Samples)
	assert.Equal(t, result.ID, decoded.ID)
	assert.Len(t, decoded.Features, len(result.Features))
}

func TestSummarize(t *testing.T) {
	s := Summarize(twoRoomPlan(), UnitsMetric)

	assert.Equal(t, "Ground Floor", s.Title)
	assert.Equal(t, 2, s.Rooms)
	assert.Equal(t, 1, s.Openings)
	assert.InDelta(t, 26.0, s.Area, 1e-9)
	assert.Equal(t, "26.0 m²", s.AreaLabel)
	assert.Equal(t, "Medium Room", s.SizeLabel)

	assert.Equal(t, "279.9 ft²", Summarize(twoRoomPlan(), UnitsImperial).AreaLabel)
}
