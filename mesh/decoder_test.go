package mesh

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchJSON = `{
  "id": "scan-7",
  "title": "Bedroom",
  "samples": [
    {"vertices": [[-2, 0, -1.5], [2, 0, 1.5]], "normals": [[0, 1, 0], [0, 1, 0]]}
  ],
  "dimensions": {"width": 4, "length": 3, "height": 2.5, "area": 12, "volume": 30}
}`

func TestDecodeMeshBatch_RawJSON(t *testing.T) {
	batch, err := DecodeMeshBatch([]byte(batchJSON))
	require.NoError(t, err)

	assert.Equal(t, "scan-7", batch.ID)
	assert.Equal(t, "Bedroom", batch.Title)
	require.Len(t, batch.Samples, 1)
	assert.Equal(t, mgl64.Ident4(), batch.Samples[0].Transform, "missing transform becomes identity")
	require.NotNil(t, batch.Dimensions)
	assert.Equal(t, 12.0, batch.Dimensions.Area)
}

func TestDecodeMeshBatch_Zlib(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write([]byte(batchJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	batch, err := DecodeMeshBatch(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "scan-7", batch.ID)
}

func TestDecodeMeshBatch_Gzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(batchJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	batch, err := DecodeMeshBatch(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, batch.Samples, 1)
}

func TestDecodeMeshBatch_BareArray(t *testing.T) {
	batch, err := DecodeMeshBatch([]byte(`[{"vertices": [[0,0,0]], "normals": [[0,1,0]]}, {"vertices": [], "normals": []}]`))
	require.NoError(t, err)
	assert.Len(t, batch.Samples, 2)
	assert.Nil(t, batch.Dimensions)
}

func TestDecodeMeshBatch_Errors(t *testing.T) {
	_, err := DecodeMeshBatch(nil)
	assert.Error(t, err)

	_, err = DecodeMeshBatch([]byte("   "))
	assert.Error(t, err)

	_, err = DecodeMeshBatch([]byte("not a mesh"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, err = DecodeMeshBatch([]byte(`{"samples": 5}`))
	assert.Error(t, err)
}

func TestLoadMeshBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(batchJSON), 0o644))

	batch, err := LoadMeshBatchFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Bedroom", batch.Title)

	_, err = LoadMeshBatchFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
