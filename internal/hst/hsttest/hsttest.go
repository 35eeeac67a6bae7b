// Package hsttest builds synthetic history files for tests.
package hsttest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"hst-data/internal/model"
)

const headerSize = 148

// File describes a synthetic history file.
type File struct {
	Version int32
	Symbol  string // padded with NULs to 12 bytes
	Period  int32
	Bars    []model.Bar
}

// Bytes encodes f. Legacy (400) records store Timestamp/1000 seconds; other versions
// store the low 32 bits of Timestamp as is.
func (f File) Bytes() []byte {
	recSize := 60
	if f.Version == 400 {
		recSize = 44
	}
	buf := make([]byte, headerSize+len(f.Bars)*recSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(f.Version))
	copy(buf[4:68], "(C)opyright test")
	sym := make([]byte, 12)
	copy(sym, f.Symbol)
	copy(buf[68:80], sym)
	le.PutUint32(buf[80:], uint32(f.Period))

	for i, b := range f.Bars {
		rec := buf[headerSize+i*recSize:]
		if f.Version == 400 {
			le.PutUint32(rec[0:], uint32(int32(b.Timestamp/1000)))
			le.PutUint64(rec[4:], math.Float64bits(b.Open))
			le.PutUint64(rec[12:], math.Float64bits(b.Low))
			le.PutUint64(rec[20:], math.Float64bits(b.High))
			le.PutUint64(rec[28:], math.Float64bits(b.Close))
			le.PutUint64(rec[36:], math.Float64bits(b.Volume))
			continue
		}
		le.PutUint32(rec[0:], uint32(int32(b.Timestamp)))
		le.PutUint64(rec[8:], math.Float64bits(b.Open))
		le.PutUint64(rec[16:], math.Float64bits(b.High))
		le.PutUint64(rec[24:], math.Float64bits(b.Low))
		le.PutUint64(rec[32:], math.Float64bits(b.Close))
		le.PutUint64(rec[40:], math.Float64bits(b.Volume))
		le.PutUint32(rec[48:], uint32(b.Spread))
		le.PutUint64(rec[52:], math.Float64bits(b.RealVolume))
	}
	return buf
}

// Write stores f as dir/name and returns the path.
func Write(tb testing.TB, dir, name string, f File) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, f.Bytes(), 0644); err != nil {
		tb.Fatalf("write %s: %v", p, err)
	}
	return p
}

// Uniform returns n contiguous bars spaced periodMin minutes apart from startMs.
func Uniform(startMs int64, periodMin int32, n int) []model.Bar {
	bars := make([]model.Bar, n)
	step := int64(periodMin) * 60000
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = model.Bar{
			Timestamp: startMs + int64(i)*step,
			Open:      p,
			High:      p + 1,
			Low:       p - 1,
			Close:     p + 0.5,
			Volume:    float64(1000 + i),
		}
	}
	return bars
}

// UniformSeconds is Uniform with timestamps in seconds, the unit VersionCurrent
// records store.
func UniformSeconds(startMs int64, periodMin int32, n int) []model.Bar {
	bars := Uniform(startMs, periodMin, n)
	for i := range bars {
		bars[i].Timestamp /= 1000
	}
	return bars
}
