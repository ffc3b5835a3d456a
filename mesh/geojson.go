package mesh

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature "kind" property values in GeoJSON exports.
const (
	geoKindRoom    = "room"
	geoKindWall    = "wall"
	geoKindOpening = "opening"
)

// PlanToFeatureCollection converts the plan to GeoJSON in plan meters:
// rooms as polygons, walls as line strings and openings as points.
func PlanToFeatureCollection(plan *FloorPlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, room := range plan.Rooms {
		if len(room.Corners) == 0 {
			continue
		}
		f := geojson.NewFeature(orb.Polygon{roomRing(room.Corners)})
		f.ID = room.ID
		f.Properties["kind"] = geoKindRoom
		f.Properties["name"] = room.Name
		f.Properties["area"] = room.Area()
		f.Properties["perimeter"] = room.Perimeter
		fc.Append(f)
	}

	for _, wall := range plan.Walls {
		f := geojson.NewFeature(orb.LineString{toOrbPoint(wall.Start), toOrbPoint(wall.End)})
		f.ID = wall.ID
		f.Properties["kind"] = geoKindWall
		f.Properties["thickness"] = wall.Thickness
		f.Properties["height"] = wall.Height
		fc.Append(f)
	}

	for _, o := range plan.Openings {
		f := geojson.NewFeature(toOrbPoint(o.Position))
		f.ID = o.ID
		f.Properties["kind"] = geoKindOpening
		f.Properties["opening"] = string(o.Kind)
		f.Properties["width"] = o.Width
		fc.Append(f)
	}

	return fc
}

// EncodeGeoJSON writes the plan as a GeoJSON FeatureCollection.
func EncodeGeoJSON(plan *FloorPlan) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode geojson: %w", ErrMissingInput)
	}
	data, err := PlanToFeatureCollection(plan).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

// roomRing returns the corners as a closed ring.
func roomRing(corners []Point2) orb.Ring {
	ring := make(orb.Ring, 0, len(corners)+1)
	for _, c := range corners {
		ring = append(ring, toOrbPoint(c))
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

func toOrbPoint(p Point2) orb.Point {
	return orb.Point{p.X, p.Y}
}
