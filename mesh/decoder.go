package mesh

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxDecodedBytes caps decompressed payloads.
const maxDecodedBytes = 256 << 20

// DecodeMeshBatch decodes a mesh batch from any of:
// - Raw JSON (object with "samples", or a bare array of samples)
// - Zlib-compressed JSON
// - Gzip-compressed JSON
func DecodeMeshBatch(data []byte) (*MeshBatch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	var jsonBytes []byte
	var err error

	switch {
	case data[0] == '{' || data[0] == '[':
		jsonBytes = data
	case isGzip(data):
		jsonBytes, err = inflate(gzip.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("decompressing gzip data: %w", err)
		}
	default:
		jsonBytes, err = inflate(zlib.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("unknown format: not JSON, zlib or gzip-compressed")
		}
	}

	return ParseMeshBatchJSON(jsonBytes)
}

// ParseMeshBatchJSON parses a batch object or a bare sample array.
func ParseMeshBatchJSON(data []byte) (*MeshBatch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decoded JSON payload is empty")
	}

	var batch MeshBatch
	if data[0] == '[' {
		if err := json.Unmarshal(data, &batch.Samples); err != nil {
			return nil, fmt.Errorf("parsing sample array: %w", err)
		}
		return &batch, nil
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing mesh batch: %w", err)
	}
	return &batch, nil
}

// LoadMeshBatchFile reads and decodes a mesh batch file.
func LoadMeshBatchFile(path string) (*MeshBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return DecodeMeshBatch(data)
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// inflate drains a decompressing reader, closing it afterwards.
func inflate(reader io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	decompressed, err := io.ReadAll(io.LimitReader(reader, maxDecodedBytes))
	if err != nil {
		return nil, fmt.Errorf("decompressing data: %w", err)
	}
	return decompressed, nil
}
