package mesh

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// DefaultCanvasWidth and DefaultCanvasHeight size every visual export.
	DefaultCanvasWidth  = 1200.0
	DefaultCanvasHeight = 800.0
	// DefaultPadding is the margin kept free on each side of the canvas.
	DefaultPadding = 16.0

	// minFitExtent keeps degenerate (zero-width) geometry from blowing up
	// the scale.
	minFitExtent = 0.1
)

// CanvasSize is an output surface size in canvas units (pixels or points).
type CanvasSize struct {
	Width  float64
	Height float64
}

// DefaultCanvas returns the 1200 x 800 export canvas.
func DefaultCanvas() CanvasSize {
	return CanvasSize{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
}

// Fit maps plan coordinates to canvas coordinates with a uniform scale.
// Canvas y grows downward, matching SVG.
type Fit struct {
	Scale  float64
	Offset Point2
}

// Apply maps a plan point onto the canvas.
func (f Fit) Apply(p Point2) Point2 {
	return Point2{X: p.X*f.Scale + f.Offset.X, Y: p.Y*f.Scale + f.Offset.Y}
}

// FitToCanvas computes the uniform scale and offset that place every corner
// inside the canvas with the given padding on each side. It reports false
// when there are no corners, in which case callers draw the background only.
func FitToCanvas(corners []Point2, size CanvasSize, padding float64) (Fit, bool) {
	if len(corners) == 0 {
		return Fit{}, false
	}

	mp := make(orb.MultiPoint, len(corners))
	for i, c := range corners {
		mp[i] = orb.Point{c.X, c.Y}
	}
	bound := mp.Bound()

	extentX := math.Max(bound.Max.X()-bound.Min.X(), minFitExtent)
	extentY := math.Max(bound.Max.Y()-bound.Min.Y(), minFitExtent)
	usableW := math.Max(size.Width-2*padding, 0)
	usableH := math.Max(size.Height-2*padding, 0)

	scale := math.Min(usableW/extentX, usableH/extentY)
	return Fit{
		Scale: scale,
		Offset: Point2{
			X: padding - bound.Min.X()*scale,
			Y: padding - bound.Min.Y()*scale,
		},
	}, true
}

// PlanFit is FitToCanvas over every room corner of the plan.
func PlanFit(plan *FloorPlan, size CanvasSize, padding float64) (Fit, bool) {
	return FitToCanvas(plan.AllCorners(), size, padding)
}
