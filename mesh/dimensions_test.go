package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDimensions(t *testing.T) {
	dims, ok := DeriveDimensions(roomSamples())
	require.True(t, ok)

	assert.InDelta(t, 4.0, dims.Width, 1e-9)
	assert.InDelta(t, 3.0, dims.Length, 1e-9)
	assert.InDelta(t, 2.5, dims.Height, 1e-9)
	assert.InDelta(t, 12.0, dims.Area, 1e-9)
	assert.InDelta(t, 30.0, dims.Volume, 1e-9)
}

func TestDeriveDimensions_Floors(t *testing.T) {
	small := patch(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 1, 0.2}, mgl64.Vec3{1, 0, 0})

	dims, ok := DeriveDimensions([]MeshSample{small})
	require.True(t, ok)

	assert.Equal(t, MinRoomExtent, dims.Width)
	assert.Equal(t, MinRoomExtent, dims.Length)
	assert.Equal(t, MinRoomHeight, dims.Height)
	assert.Equal(t, MinRoomExtent, dims.Area)
	assert.Equal(t, MinRoomExtent, dims.Volume)
}

func TestDeriveDimensions_NoVertices(t *testing.T) {
	_, ok := DeriveDimensions(nil)
	assert.False(t, ok)

	_, ok = DeriveDimensions([]MeshSample{{Transform: mgl64.Ident4()}})
	assert.False(t, ok)
}

func TestRoomDimensions_Imperial(t *testing.T) {
	dims := NewRoomDimensions(4, 3, 2.5)

	assert.InDelta(t, 13.12336, dims.WidthFeet(), 1e-5)
	assert.InDelta(t, 9.84252, dims.LengthFeet(), 1e-5)
	assert.InDelta(t, 8.2021, dims.HeightFeet(), 1e-4)
	assert.InDelta(t, 129.1668, dims.AreaSquareFeet(), 1e-4)
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		in      string
		want    RoomDimensions
		wantErr bool
	}{
		{in: "4x3x2.5", want: NewRoomDimensions(4, 3, 2.5)},
		{in: " 5X4X2.4 ", want: NewRoomDimensions(5, 4, 2.4)},
		{in: "4x3", wantErr: true},
		{in: "4x0x2", wantErr: true},
		{in: "axbxc", wantErr: true},
		{in: "", wantErr: true},
		{in: "NaNx3x2.5", wantErr: true},
		{in: "4xInfx2.5", wantErr: true},
		{in: "4x3x+Infinity", wantErr: true},
		{in: "-infx3x2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDimensions(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanProgress(t *testing.T) {
	assert.Equal(t, 0.0, ScanProgress(0))
	assert.Equal(t, 0.5, ScanProgress(10))
	assert.Equal(t, 1.0, ScanProgress(20))
	assert.Equal(t, 1.0, ScanProgress(55))
}
