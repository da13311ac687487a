package render

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
)

// Result holds a rendered document and the format it was rendered in.
// Its methods never modify the underlying data.
type Result struct {
	data   []byte
	format Format
}

// NewResult wraps rendered bytes
func NewResult(data []byte, format Format) *Result {
	return &Result{data: data, format: format}
}

// Bytes returns the raw content
func (r *Result) Bytes() []byte {
	return r.data
}

// Format returns the output format
func (r *Result) Format() Format {
	return r.format
}

// ContentType returns the MIME type of the content
func (r *Result) ContentType() string {
	return r.format.ContentType()
}

// Base64 returns the content as standard base64, for JSON payloads
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns a reader over the content
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full content to w. It implements io.WriterTo.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the content to path, creating it if needed
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.data, perm)
}

// Len returns the size in bytes
func (r *Result) Len() int {
	return len(r.data)
}
