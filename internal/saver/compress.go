package saver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"hst-data/internal/model"
)

// StreamWriter is implemented by savers that can encode to any writer.
type StreamWriter interface {
	Write(w io.Writer, bars []model.Bar) error
}

// CompressedSaver wraps a streaming saver and compresses its output.
type CompressedSaver struct {
	inner interface {
		PacketSaver
		StreamWriter
	}
	codec string // gzip | zstd
}

// Compress wraps ps with codec. "" and "none" return ps unchanged.
func Compress(ps PacketSaver, codec string) (PacketSaver, error) {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" || codec == "none" {
		return ps, nil
	}
	sw, ok := ps.(interface {
		PacketSaver
		StreamWriter
	})
	if !ok {
		return nil, fmt.Errorf("format %s cannot be compressed", ps.Extension())
	}
	switch codec {
	case "gzip", "gz":
		return CompressedSaver{inner: sw, codec: "gzip"}, nil
	case "zstd", "zst":
		return CompressedSaver{inner: sw, codec: "zstd"}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q (use: none, gzip, zstd)", codec)
	}
}

func (c CompressedSaver) Extension() string {
	if c.codec == "gzip" {
		return c.inner.Extension() + ".gz"
	}
	return c.inner.Extension() + ".zst"
}

func (c CompressedSaver) Save(bars []model.Bar, path string) error {
	return saveFile(path, func(w io.Writer) error {
		zw, err := c.newWriter(w)
		if err != nil {
			return err
		}
		if err := c.inner.Write(zw, bars); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	})
}

func (c CompressedSaver) newWriter(w io.Writer) (io.WriteCloser, error) {
	if c.codec == "gzip" {
		return gzip.NewWriter(w), nil
	}
	return zstd.NewWriter(w)
}

// saveFile creates path and runs write; the file is closed on every path.
func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
