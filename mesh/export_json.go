package mesh

import (
	"encoding/json"
	"fmt"
)

// EncodeJSON writes the plan field for field. DecodeJSON reverses it.
func EncodeJSON(plan *FloorPlan) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("encode json: %w", ErrMissingInput)
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a plan written by EncodeJSON. Room areas in the payload
// are ignored and recomputed from the corners.
func DecodeJSON(data []byte) (*FloorPlan, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode json: %w", ErrMissingInput)
	}
	var plan FloorPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &plan, nil
}
