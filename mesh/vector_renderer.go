package mesh

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Room styling shared by every visual format.
const (
	roomStrokeSVG   = "black"
	roomFillSVG     = "rgb(0,122,255)"
	roomStrokeWidth = 2.0
	roomFillOpacity = 0.08
)

var roomFill = color.NRGBA{R: 0, G: 122, B: 255, A: 20} // 0.08 opacity

// mmPerPoint converts canvas units to the millimetres tdewolff/canvas uses
// for PDF pages, so one canvas unit is one PDF point.
const mmPerPoint = 25.4 / 72

// RenderOptions controls the canvas shared by the visual encoders. A zero
// canvas size or empty units take the defaults. Padding of zero is honored;
// a negative padding takes the default.
type RenderOptions struct {
	Canvas  CanvasSize
	Padding float64
	Units   Units
}

// DefaultRenderOptions returns a 1200 x 800 metric canvas with 16 units of
// padding.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Canvas: DefaultCanvas(), Padding: DefaultPadding, Units: UnitsMetric}
}

func (o RenderOptions) withDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Canvas.Width <= 0 || o.Canvas.Height <= 0 {
		o.Canvas = d.Canvas
	}
	if o.Padding < 0 {
		o.Padding = d.Padding
	}
	if o.Units == "" {
		o.Units = d.Units
	}
	return o
}

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// canvasRenderer is an interface that both pdf and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// EncodePDF renders the plan onto a single page the size of the canvas.
func EncodePDF(plan *FloorPlan, opts RenderOptions) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode pdf: %w", ErrMissingInput)
	}
	opts = opts.withDefaults()

	var buf bytes.Buffer
	pdfRenderer := pdf.New(&buf, opts.Canvas.Width*mmPerPoint, opts.Canvas.Height*mmPerPoint, nil)
	renderPlan(pdfRenderer, plan, opts, canvas.Identity.Scale(mmPerPoint, mmPerPoint))
	if err := pdfRenderer.Close(); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG renders a raster preview (one pixel per canvas unit) with room
// name and area labels.
func EncodePNG(plan *FloorPlan, opts RenderOptions) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode png: %w", ErrMissingInput)
	}
	opts = opts.withDefaults()

	rast := rasterizer.New(opts.Canvas.Width, opts.Canvas.Height, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	renderPlan(rast, plan, opts, canvas.Identity)

	if fit, ok := PlanFit(plan, opts.Canvas, opts.Padding); ok {
		for _, room := range plan.Rooms {
			if len(room.Corners) == 0 {
				continue
			}
			at := fit.Apply(labelAnchor(room.Corners))
			area := fmt.Sprintf("%.1f %s", room.Area()*opts.Units.AreaFactor(), opts.Units.AreaSuffix())
			drawCenteredText(rast, int(at.X), int(at.Y)-2, room.Name, color.RGBA{40, 40, 40, 255})
			drawCenteredText(rast, int(at.X), int(at.Y)+13, area, color.RGBA{90, 90, 90, 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rast); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPlan draws the background and room polygons in canvas units, then
// maps them through base onto the renderer's surface. Fit coordinates grow
// downward, so paths are flipped into canvas space (y up).
func renderPlan(renderer canvasRenderer, plan *FloorPlan, opts RenderOptions, base canvas.Matrix) {
	size := opts.Canvas

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	renderer.RenderPath(canvas.Rectangle(size.Width, size.Height), bgStyle, base)

	fit, ok := PlanFit(plan, size, opts.Padding)
	if !ok {
		return
	}

	roomStyle := canvas.DefaultStyle
	roomStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(roomFill)}
	roomStyle.Stroke = canvas.Paint{Color: canvas.Black}
	roomStyle.StrokeWidth = roomStrokeWidth

	flip := base.Translate(0, size.Height).Scale(1, -1)
	for _, room := range plan.Rooms {
		if len(room.Corners) == 0 {
			continue
		}
		cp := &canvas.Path{}
		for i, c := range room.Corners {
			p := fit.Apply(c)
			if i == 0 {
				cp.MoveTo(p.X, p.Y)
			} else {
				cp.LineTo(p.X, p.Y)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, roomStyle, flip)
	}
}

// labelAnchor returns the polygon centroid, or the bounding box center when
// the polygon has no area.
func labelAnchor(corners []Point2) Point2 {
	ring := roomRing(corners)
	if centroid, area := planar.CentroidArea(orb.Polygon{ring}); area != 0 {
		return Point2{X: centroid.X(), Y: centroid.Y()}
	}
	center := ring.Bound().Center()
	return Point2{X: center.X(), Y: center.Y()}
}

// drawCenteredText draws text horizontally centered on x with its baseline at y.
func drawCenteredText(img *rasterizer.Rasterizer, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Round()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x - width/2), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
