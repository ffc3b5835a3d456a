package mesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// EncodeSVG renders the plan's rooms as filled polygons on a white canvas.
// A plan without rooms yields a valid SVG with the background only.
func EncodeSVG(plan *FloorPlan, opts RenderOptions) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode svg: %w", ErrMissingInput)
	}
	opts = opts.withDefaults()
	size := opts.Canvas

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", svgNamespace)
	root.CreateAttr("width", formatNumber(size.Width))
	root.CreateAttr("height", formatNumber(size.Height))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", formatNumber(size.Width), formatNumber(size.Height)))

	if plan.Title != "" {
		root.CreateElement("title").SetText(plan.Title)
	}

	bg := root.CreateElement("rect")
	bg.CreateAttr("width", formatNumber(size.Width))
	bg.CreateAttr("height", formatNumber(size.Height))
	bg.CreateAttr("fill", "white")

	if fit, ok := PlanFit(plan, size, opts.Padding); ok {
		g := root.CreateElement("g")
		g.CreateAttr("id", "rooms")
		for _, room := range plan.Rooms {
			if len(room.Corners) == 0 {
				continue
			}
			poly := g.CreateElement("polygon")
			poly.CreateAttr("data-room", room.Name)
			poly.CreateAttr("points", svgPoints(room.Corners, fit))
			poly.CreateAttr("stroke", roomStrokeSVG)
			poly.CreateAttr("stroke-width", formatNumber(roomStrokeWidth))
			poly.CreateAttr("fill", roomFillSVG)
			poly.CreateAttr("fill-opacity", formatNumber(roomFillOpacity))
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("encode svg: %w", err)
	}
	return data, nil
}

func svgPoints(corners []Point2, fit Fit) string {
	parts := make([]string, len(corners))
	for i, c := range corners {
		p := fit.Apply(c)
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// formatNumber prints a float without trailing zeros ("1200", "0.08").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
