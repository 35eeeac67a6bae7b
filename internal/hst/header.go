package hst

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	// HeaderSize is the fixed preamble length; records start right after it.
	HeaderSize = 148

	offVersion = 0
	offSymbol  = 68
	offPeriod  = 80
	offStart   = HeaderSize

	symbolLen = 12
)

// Header is the decoded file preamble.
type Header struct {
	Version Version
	Symbol  string // raw 12 bytes, padding kept
	Period  int32  // minutes
	Start   int64  // ms, probed from the first record's time field
}

// Ticker returns Symbol without trailing NUL/space padding.
func (h Header) Ticker() string {
	return strings.TrimRight(h.Symbol, "\x00 ")
}

// PeriodMillis is the bar duration in milliseconds.
func (h Header) PeriodMillis() int64 {
	return int64(h.Period) * 60000
}

// readHeader decodes the preamble from r. size is the total file size.
func readHeader(r io.ReaderAt, size int64) (Header, error) {
	if size < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooSmall, size, HeaderSize)
	}

	var h Header
	v, err := readInt32(r, size, offVersion)
	if err != nil {
		return Header{}, fmt.Errorf("read version: %w", err)
	}
	h.Version = Version(v)

	sym := make([]byte, symbolLen)
	if err := readFull(r, size, sym, offSymbol); err != nil {
		return Header{}, fmt.Errorf("read symbol: %w", err)
	}
	h.Symbol = string(sym)

	if h.Period, err = readInt32(r, size, offPeriod); err != nil {
		return Header{}, fmt.Errorf("read period: %w", err)
	}

	start, err := readInt32(r, size, offStart)
	if err != nil {
		// header present but no room for the first timestamp
		return Header{}, fmt.Errorf("%w: no first record: %v", ErrTooSmall, err)
	}
	h.Start = int64(start) * 1000
	return h, nil
}

func readFull(r io.ReaderAt, size int64, buf []byte, off int64) error {
	if off < 0 || off+int64(len(buf)) > size {
		return fmt.Errorf("%w: offset %d len %d size %d", ErrOutOfRange, off, len(buf), size)
	}
	if _, err := r.ReadAt(buf, off); err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return nil
}

func readInt32(r io.ReaderAt, size int64, off int64) (int32, error) {
	var b [4]byte
	if err := readFull(r, size, b[:], off); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}
