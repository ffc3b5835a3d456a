package mesh

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshSample is one captured surface patch: vertices and normals in the
// sample's local frame plus the column-major transform to world space.
type MeshSample struct {
	ID        string       `json:"id,omitempty"`
	Vertices  []mgl64.Vec3 `json:"vertices"`
	Normals   []mgl64.Vec3 `json:"normals"`
	Transform mgl64.Mat4   `json:"transform"`
}

// UnmarshalJSON treats a missing or all-zero transform as identity so that
// hand-written payloads without a transform land in world space unchanged.
func (s *MeshSample) UnmarshalJSON(data []byte) error {
	type raw MeshSample
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Transform == (mgl64.Mat4{}) {
		r.Transform = mgl64.Ident4()
	}
	*s = MeshSample(r)
	return nil
}

// MeshBatch is a frozen set of samples submitted for one reconstruction.
type MeshBatch struct {
	ID         string          `json:"id,omitempty"`
	Title      string          `json:"title,omitempty"`
	Samples    []MeshSample    `json:"samples"`
	Dimensions *RoomDimensions `json:"dimensions,omitempty"`
}

// FeatureType labels a classified surface or inferred opening.
type FeatureType string

const (
	FeatureWall    FeatureType = "wall"
	FeatureFloor   FeatureType = "floor"
	FeatureCeiling FeatureType = "ceiling"
	FeatureDoor    FeatureType = "door"
	FeatureWindow  FeatureType = "window"
	FeatureOpening FeatureType = "opening"
	FeatureCorner  FeatureType = "corner"
)

// ArchitecturalFeature is a classified surface or an inferred opening in
// world coordinates. Confidence is advisory.
type ArchitecturalFeature struct {
	Type        FeatureType `json:"type"`
	Position    Point3      `json:"position"`
	Dimensions  Point3      `json:"dimensions"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// FilterByConfidence returns the features whose confidence is at least min.
func FilterByConfidence(features []ArchitecturalFeature, min float64) []ArchitecturalFeature {
	out := make([]ArchitecturalFeature, 0, len(features))
	for _, f := range features {
		if f.Confidence >= min {
			out = append(out, f)
		}
	}
	return out
}

// CountByType tallies features per type.
func CountByType(features []ArchitecturalFeature) map[FeatureType]int {
	counts := make(map[FeatureType]int)
	for _, f := range features {
		counts[f.Type]++
	}
	return counts
}

const (
	feetPerMeter       = 3.28084
	squareFeetPerMeter = 10.7639
)

// RoomDimensions holds the overall room extent in meters.
type RoomDimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Length float64 `json:"length" yaml:"length"`
	Height float64 `json:"height" yaml:"height"`
	Area   float64 `json:"area" yaml:"area"`
	Volume float64 `json:"volume" yaml:"volume"`
}

// NewRoomDimensions derives area and volume from the three extents.
func NewRoomDimensions(width, length, height float64) RoomDimensions {
	return RoomDimensions{
		Width:  width,
		Length: length,
		Height: height,
		Area:   width * length,
		Volume: width * length * height,
	}
}

// ParseDimensions parses "WxLxH" (meters), e.g. "4x3x2.5".
func ParseDimensions(s string) (RoomDimensions, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 3 {
		return RoomDimensions{}, fmt.Errorf("parsing dimensions %q: want WxLxH", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return RoomDimensions{}, fmt.Errorf("parsing dimensions %q: %w", s, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return RoomDimensions{}, fmt.Errorf("dimensions %q must be finite", s)
		}
		v[i] = f
	}
	w, l, h := v[0], v[1], v[2]
	if w <= 0 || l <= 0 || h <= 0 {
		return RoomDimensions{}, fmt.Errorf("dimensions %q must be positive", s)
	}
	return NewRoomDimensions(w, l, h), nil
}

func (d RoomDimensions) WidthFeet() float64      { return d.Width * feetPerMeter }
func (d RoomDimensions) LengthFeet() float64     { return d.Length * feetPerMeter }
func (d RoomDimensions) HeightFeet() float64     { return d.Height * feetPerMeter }
func (d RoomDimensions) AreaSquareFeet() float64 { return d.Area * squareFeetPerMeter }

// Units selects how lengths and areas are presented.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits accepts "metric" or "imperial"; empty means metric.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "", UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	}
	return "", fmt.Errorf("unknown units %q (want metric or imperial)", s)
}

// LengthFactor converts meters to the display unit.
func (u Units) LengthFactor() float64 {
	if u == UnitsImperial {
		return feetPerMeter
	}
	return 1
}

// AreaFactor converts square meters to the display unit.
func (u Units) AreaFactor() float64 {
	if u == UnitsImperial {
		return squareFeetPerMeter
	}
	return 1
}

func (u Units) LengthSuffix() string {
	if u == UnitsImperial {
		return "ft"
	}
	return "m"
}

func (u Units) AreaSuffix() string {
	if u == UnitsImperial {
		return "ft²"
	}
	return "m²"
}

// FloorPlan is the 2D model derived from one scan. Treat it as an immutable
// value; editing helpers return a new plan.
type FloorPlan struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"createdAt"`
	Rooms     []Room      `json:"rooms,omitempty"`
	Walls     []Wall      `json:"walls,omitempty"`
	Openings  []Opening   `json:"openings,omitempty"`
	Scale     float64     `json:"scale"`
	Bounds    BoundingBox `json:"bounds"`
}

// Room is a closed polygon on the floor plane. Its area is always derived
// from Corners.
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Corners   []Point2 `json:"corners"`
	Perimeter float64  `json:"perimeter"`
}

// Area returns the shoelace area of the room's corners.
func (r Room) Area() float64 {
	return PolygonArea(r.Corners)
}

// MarshalJSON includes the derived area for consumers. Decoding ignores it.
func (r Room) MarshalJSON() ([]byte, error) {
	type raw Room
	return json.Marshal(struct {
		raw
		Area float64 `json:"area"`
	}{raw: raw(r), Area: r.Area()})
}

// Wall is a straight wall segment on the floor plane.
type Wall struct {
	ID        string  `json:"id"`
	Start     Point2  `json:"start"`
	End       Point2  `json:"end"`
	Thickness float64 `json:"thickness"`
	Height    float64 `json:"height"`
}

// Length returns the wall's centerline length.
func (w Wall) Length() float64 {
	return math.Hypot(w.End.X-w.Start.X, w.End.Y-w.Start.Y)
}

// OpeningKind distinguishes doors from windows in a plan.
type OpeningKind string

const (
	OpeningDoor   OpeningKind = "door"
	OpeningWindow OpeningKind = "window"
)

// Opening is a door or window projected onto the floor plane.
type Opening struct {
	ID       string      `json:"id"`
	Position Point2      `json:"position"`
	Width    float64     `json:"width"`
	Kind     OpeningKind `json:"kind"`
}

// Config represents the full configuration file
type Config struct {
	Log    LogConfig    `yaml:"log" json:"log"`
	Units  Units        `yaml:"units,omitempty" json:"units,omitempty"`
	Export ExportConfig `yaml:"export" json:"export"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	MQTT   MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	HTTP   HTTPConfig   `yaml:"http" json:"http"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Mode string `yaml:"mode" json:"mode"` // "development" or "production"
}

// ExportConfig controls where and how plans are exported.
type ExportConfig struct {
	Dir         string   `yaml:"dir" json:"dir"`
	Formats     []string `yaml:"formats" json:"formats"`
	Width       float64  `yaml:"width,omitempty" json:"width,omitempty"`
	Height      float64  `yaml:"height,omitempty" json:"height,omitempty"`
	Padding     float64  `yaml:"padding" json:"padding"`
	Concurrency int      `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// StoreConfig selects the plan store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // "file" or "sqlite"
	Path   string `yaml:"path" json:"path"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	ScanTopic     string `yaml:"scanTopic" json:"scanTopic"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}
