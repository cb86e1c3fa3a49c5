// Package compress implements the Compression Wrapper (spec section 4.8):
// an optional zlib + base64 envelope around any textual (or binary) output,
// shared by the --compress CLI option and the Claude formatter's native
// quantum-base64 envelope.
package compress

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
)

// Compress zlib-compresses data and base64-encodes the result (standard
// encoding, matching the Claude formatter's "data" field, spec section
// 6.4's Claude format).
func Compress(data []byte) (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("compress: zlib write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress: zlib close: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress: base64-decode, then zlib-inflate.
func Decompress(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("compress: base64 decode: %w", err)
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("compress: zlib reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("compress: zlib read: %w", err)
	}
	return out, nil
}

// Envelope describes the sizes reported alongside a compressed payload, as
// used by the Claude formatter's JSON wrapper (spec section 4.5).
type Envelope struct {
	Format           string `json:"format"`
	Data             string `json:"data"`
	OriginalBytes    int    `json:"original_bytes"`
	CompressedBytes  int    `json:"compressed_bytes"`
}

// NewEnvelope compresses data and builds the full Envelope record.
func NewEnvelope(format string, data []byte) (Envelope, error) {
	encoded, err := Compress(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Format:          format,
		Data:            encoded,
		OriginalBytes:   len(data),
		CompressedBytes: len(encoded),
	}, nil
}
