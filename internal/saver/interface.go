package saver

import (
	"fmt"
	"strings"

	"hst-data/internal/model"
)

// PacketSaver là abstraction cho lưu một file bars đã decode.
// Exporter chỉ phụ thuộc interface; main inject implementation.
type PacketSaver interface {
	Save(bars []model.Bar, path string) error
	Extension() string
}

// Formats lists the accepted SAVE_FORMAT values.
var Formats = []string{"csv", "json", "parquet"}

// NewPacketSaver creates implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewPacketSaver(format string) PacketSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// New returns the saver for format wrapped with the given compression
// (none, gzip, zstd). Parquet output is never wrapped: it compresses its own pages.
func New(format, compression string) (PacketSaver, error) {
	ps := NewPacketSaver(format)
	if ps == nil {
		return nil, fmt.Errorf("unsupported format %q (use: %s)", format, strings.Join(Formats, ", "))
	}
	if _, ok := ps.(ParquetSaver); ok {
		return ps, nil
	}
	return Compress(ps, compression)
}
