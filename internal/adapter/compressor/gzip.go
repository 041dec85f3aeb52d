package compressor

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type GzipCompressor struct {
	level int
}

func NewGzip(level int) *GzipCompressor {
	return &GzipCompressor{level: level}
}

// NewWriter wraps w so that everything written is gzip-compressed. Close
// flushes the gzip trailer but leaves w open.
func (g *GzipCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	gzipWriter, err := gzip.NewWriterLevel(w, g.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	return gzipWriter, nil
}

func (g *GzipCompressor) Extension() string {
	return ".gz"
}
