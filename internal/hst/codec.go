package hst

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"hst-data/internal/model"
)

// decodeAt reads one record of layout l starting at off and decodes it.
func decodeAt(r io.ReaderAt, size int64, l Layout, off int64) (model.Bar, error) {
	buf := make([]byte, l.RecordSize)
	if err := readFull(r, size, buf, off); err != nil {
		return model.Bar{}, err
	}
	return decodeRecord(l, buf)
}

// decodeRecord decodes buf (one record) field by field in declared order.
func decodeRecord(l Layout, buf []byte) (model.Bar, error) {
	var b model.Bar
	for _, f := range l.Fields {
		var v float64
		switch f.Kind {
		case KindSkip:
			continue
		case KindConstant:
			v = f.Const
		case KindDate:
			raw, err := fieldInt32(buf, f)
			if err != nil {
				return model.Bar{}, err
			}
			ts := int64(raw)
			if l.Version == VersionLegacy {
				ts *= 1000
			}
			b.Timestamp = ts
			continue
		case KindDouble:
			if f.Offset < 0 || f.Offset+8 > len(buf) {
				return model.Bar{}, fmt.Errorf("%w: field %s", ErrOutOfRange, f.Name)
			}
			v = math.Float64frombits(binary.LittleEndian.Uint64(buf[f.Offset:]))
		case KindInt32:
			raw, err := fieldInt32(buf, f)
			if err != nil {
				return model.Bar{}, err
			}
			v = float64(raw)
		default:
			return model.Bar{}, fmt.Errorf("hst: field %s: unknown kind %d", f.Name, f.Kind)
		}
		assign(&b, f.Name, v)
	}
	return b, nil
}

func fieldInt32(buf []byte, f Field) (int32, error) {
	if f.Offset < 0 || f.Offset+4 > len(buf) {
		return 0, fmt.Errorf("%w: field %s", ErrOutOfRange, f.Name)
	}
	return int32(binary.LittleEndian.Uint32(buf[f.Offset:])), nil
}

func assign(b *model.Bar, name string, v float64) {
	switch name {
	case FieldTime:
		b.Timestamp = int64(v)
	case FieldOpen:
		b.Open = v
	case FieldHigh:
		b.High = v
	case FieldLow:
		b.Low = v
	case FieldClose:
		b.Close = v
	case FieldVolume:
		b.Volume = v
	case FieldSpread:
		b.Spread = int32(v)
	case FieldRealVolume:
		b.RealVolume = v
	}
}
