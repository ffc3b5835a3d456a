package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when a stage is asked to run without the
	// data it needs (no dimensions for the generator, nil plan for an encoder).
	ErrMissingInput = errors.New("missing input")

	// ErrUnknownFormat is returned for an export format name that has no encoder.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrPlanNotFound is returned by plan stores when no plan has the given ID.
	ErrPlanNotFound = errors.New("plan not found")
)

// ExportError reports a failure writing a single export format.
type ExportError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
