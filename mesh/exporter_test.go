package mesh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExporter_WritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	plan := twoRoomPlan()

	var (
		mu        sync.Mutex
		fractions []float64
	)
	e := NewExporter(dir)
	e.Progress = func(f float64) {
		mu.Lock()
		defer mu.Unlock()
		fractions = append(fractions, f)
	}

	results, err := e.Export(context.Background(), plan, AllFormats())
	require.NoError(t, err)
	require.Len(t, results, len(AllFormats()))

	for i, r := range results {
		assert.Equal(t, AllFormats()[i], r.Format)
		assert.NoError(t, r.Err)
		info, statErr := os.Stat(r.Path)
		require.NoError(t, statErr, r.Path)
		assert.Positive(t, info.Size())
		assert.Equal(t, "ground-floor-0d7f5c2e"+r.Format.Extension(), filepath.Base(r.Path))
	}

	for _, name := range listDir(t, dir) {
		assert.False(t, strings.HasSuffix(name, ".tmp"), "leftover temp file %s", name)
	}

	require.Len(t, fractions, len(AllFormats()))
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.Greater(t, fractions[i], fractions[i-1])
	}
}

func TestExporter_FailureIsolated(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	e := NewExporter(dir)
	e.encode = func(plan *FloorPlan, f Format, opts RenderOptions) ([]byte, error) {
		if f == FormatPDF {
			return nil, boom
		}
		return Encode(plan, f, opts)
	}

	results, err := e.Export(context.Background(), SamplePlan(), []Format{FormatSVG, FormatPDF, FormatCSV})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, FormatPDF, exportErr.Format)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	assert.FileExists(t, results[0].Path)
	assert.NoFileExists(t, results[1].Path)
	assert.FileExists(t, results[2].Path)
	assert.Len(t, listDir(t, dir), 2)
}

func TestExporter_CancelledLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewExporter(dir).Export(ctx, twoRoomPlan(), AllFormats())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
	assert.Empty(t, listDir(t, dir))
}

func TestExporter_CancelDuringEncode(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	e := NewExporter(dir)
	e.Concurrency = 1
	e.encode = func(plan *FloorPlan, f Format, opts RenderOptions) ([]byte, error) {
		if f == FormatSVG {
			cancel()
		}
		return Encode(plan, f, opts)
	}

	_, err := e.Export(ctx, SamplePlan(), []Format{FormatSVG, FormatJSON})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listDir(t, dir))
}

func TestExporter_NilPlan(t *testing.T) {
	_, err := NewExporter(t.TempDir()).Export(context.Background(), nil, AllFormats())
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeFileAtomic(context.Background(), path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, []string{"plan.json"}, listDir(t, dir))
}

func TestWriteFileAtomic_WorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), "plan.csv")
	require.NoError(t, writeFileAtomic(context.Background(), path, []byte("Room,Area(m2),Corners\n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestExportAll(t *testing.T) {
	dir := t.TempDir()
	var last float64

	results, err := ExportAll(context.Background(), SamplePlan(), dir, []Format{FormatGeoJSON}, func(f float64) { last = f })
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.FileExists(t, results[0].Path)
	assert.Equal(t, 1.0, last)
}

func TestExportBaseName(t *testing.T) {
	tests := []struct {
		title, id, want string
	}{
		{"Living Room", "1a2b3c4d-5e6f", "living-room-1a2b3c4d"},
		{"  Süd/Flügel! ", "abc", "südflügel-abc"},
		{"", "", "floorplan"},
		{"***", "12345678", "floorplan-12345678"},
		{"Den", "../../etc/passwd", "den-etcpassw"},
		{"Den", "ßäöüéèêë-9", "den-ßäöüéèêë"},
		{"Den", "///", "den"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportBaseName(&FloorPlan{Title: tt.title, ID: tt.id}))
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, ".geojson", FormatGeoJSON.Extension())
	assert.Equal(t, "application/octet-stream", Format("obj").ContentType())
}
