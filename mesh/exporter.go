package mesh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// Format names an export encoding.
type Format string

const (
	FormatSVG     Format = "svg"
	FormatPDF     Format = "pdf"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatPNG     Format = "png"
	FormatGeoJSON Format = "geojson"
)

// AllFormats lists every supported format in a stable order.
func AllFormats() []Format {
	return []Format{FormatSVG, FormatPDF, FormatJSON, FormatCSV, FormatPNG, FormatGeoJSON}
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats parses a comma-separated list such as "svg,pdf,csv".
// An empty string selects every format.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return AllFormats(), nil
	}
	var formats []Format
	for _, part := range strings.Split(s, ",") {
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatGeoJSON:
		return "application/geo+json"
	}
	return "application/octet-stream"
}

// Encode serializes the plan in the given format.
func Encode(plan *FloorPlan, format Format, opts RenderOptions) ([]byte, error) {
	switch format {
	case FormatSVG:
		return EncodeSVG(plan, opts)
	case FormatPDF:
		return EncodePDF(plan, opts)
	case FormatJSON:
		return EncodeJSON(plan)
	case FormatCSV:
		return EncodeCSV(plan)
	case FormatPNG:
		return EncodePNG(plan, opts)
	case FormatGeoJSON:
		return EncodeGeoJSON(plan)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// ProgressFunc receives the fraction of formats finished, in [0, 1]. Calls
// are serialized.
type ProgressFunc func(fraction float64)

// DefaultExportConcurrency bounds parallel encodes in Exporter.
const DefaultExportConcurrency = 4

// Exporter writes a plan to a directory in several formats at once.
type Exporter struct {
	Dir         string
	Render      RenderOptions
	Concurrency int
	Progress    ProgressFunc

	// encode is swapped in tests to inject failures.
	encode func(*FloorPlan, Format, RenderOptions) ([]byte, error)
}

// NewExporter creates an exporter writing to dir with default settings.
func NewExporter(dir string) *Exporter {
	return &Exporter{
		Dir:         dir,
		Render:      DefaultRenderOptions(),
		Concurrency: DefaultExportConcurrency,
		encode:      Encode,
	}
}

// ExportResult describes the outcome for one format.
type ExportResult struct {
	Format Format `json:"format"`
	Path   string `json:"path,omitempty"`
	Err    error  `json:"-"`
}

// Export encodes the plan in every format and publishes each file with an
// atomic rename. A failure in one format does not stop the others; the
// returned error joins every *ExportError. Cancelling ctx abandons formats
// not yet published and leaves no partial files behind.
func (e *Exporter) Export(ctx context.Context, plan *FloorPlan, formats []Format) ([]ExportResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("export: %w", ErrMissingInput)
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	encode := e.encode
	if encode == nil {
		encode = Encode
	}
	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultExportConcurrency
	}

	base := ExportBaseName(plan)
	results := make([]ExportResult, len(formats))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if e.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		e.Progress(float64(done) / float64(len(formats)))
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, format := range formats {
		g.Go(func() error {
			path := filepath.Join(e.Dir, base+format.Extension())
			results[i] = ExportResult{Format: format, Path: path}
			if err := e.exportOne(ctx, plan, format, path, encode); err != nil {
				logger().Warn("export failed", "format", format, "path", path, "error", err)
				results[i].Err = &ExportError{Format: format, Path: path, Err: err}
			} else {
				logger().Debug("exported plan", "format", format, "path", path)
			}
			report()
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (e *Exporter) exportOne(ctx context.Context, plan *FloorPlan, format Format, path string, encode func(*FloorPlan, Format, RenderOptions) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(plan, format, e.Render)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(ctx, path, data)
}

// exportFileMode matches os.WriteFile(path, data, 0644); CreateTemp uses 0600.
const exportFileMode = 0o644

// writeFileAtomic writes data to a temp file next to path and renames it
// into place. The temp file is removed on any failure or cancellation.
func writeFileAtomic(ctx context.Context, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Chmod(exportFileMode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	return nil
}

// ExportAll is a convenience wrapper around an Exporter with default
// settings and an optional progress callback.
func ExportAll(ctx context.Context, plan *FloorPlan, dir string, formats []Format, progress ProgressFunc) ([]ExportResult, error) {
	e := NewExporter(dir)
	e.Progress = progress
	return e.Export(ctx, plan, formats)
}

// ExportBaseName derives a file-system friendly base name from the plan's
// title and ID, e.g. "living-room-1a2b3c4d".
func ExportBaseName(plan *FloorPlan) string {
	slug := fileSafe(plan.Title)
	if slug == "" {
		slug = "floorplan"
	}

	id := []rune(fileSafe(plan.ID))
	if len(id) > 8 {
		id = id[:8]
	}
	short := strings.TrimRight(string(id), "-")
	if short == "" {
		return slug
	}
	return slug + "-" + short
}

// fileSafe lowercases letters and digits, turns separators into dashes and
// drops everything else.
func fileSafe(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, strings.TrimSpace(s))
	return strings.Trim(out, "-")
}
