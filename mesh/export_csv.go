package mesh

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

var csvHeader = []string{"Room", "Area(m2)", "Corners"}

// EncodeCSV writes one row per room: name, area in square meters with two
// decimals, and the corners as space-separated "(x,y)" pairs.
func EncodeCSV(plan *FloorPlan) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode csv: %w", ErrMissingInput)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	for _, room := range plan.Rooms {
		row := []string{room.Name, fmt.Sprintf("%.2f", room.Area()), csvCorners(room.Corners)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvCorners(corners []Point2) string {
	parts := make([]string, len(corners))
	for i, c := range corners {
		parts[i] = fmt.Sprintf("(%.2f,%.2f)", c.X, c.Y)
	}
	return strings.Join(parts, " ")
}
