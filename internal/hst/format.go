package hst

import "hst-data/internal/model"

// Version is the format tag stored at offset 0 of a history file.
type Version int32

const (
	// VersionLegacy is the old 44-byte record layout.
	VersionLegacy Version = 400
	// VersionCurrent is the 60-byte record layout with spread and real volume.
	VersionCurrent Version = 401
)

// Kind selects how a field is decoded.
type Kind uint8

const (
	KindDate Kind = iota
	KindDouble
	KindInt32
	KindConstant
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindDouble:
		return "double"
	case KindInt32:
		return "int32"
	case KindConstant:
		return "constant"
	case KindSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Field names shared by both layouts.
const (
	FieldTime       = "time"
	FieldOpen       = "open"
	FieldHigh       = "high"
	FieldLow        = "low"
	FieldClose      = "close"
	FieldVolume     = "volume"
	FieldSpread     = "spread"
	FieldRealVolume = "real_volume"
)

// Field describes one value inside a record. Offset is relative to the record start.
// Const is only used by KindConstant.
type Field struct {
	Name   string
	Kind   Kind
	Size   int
	Offset int
	Const  float64
}

// Layout is the ordered field list and record size of one format version.
// TimeScale is the number of milliseconds per unit of a decoded bar timestamp:
// 1 for VersionLegacy, 1000 for VersionCurrent, whose dates decode as seconds.
type Layout struct {
	Version    Version
	RecordSize int
	Fields     []Field
	TimeScale  int64
}

func (l Layout) timeScale() int64 {
	if l.TimeScale <= 1 {
		return 1
	}
	return l.TimeScale
}

// Millis converts a decoded bar timestamp to unix milliseconds.
func (l Layout) Millis(ts int64) int64 { return ts * l.timeScale() }

// FromMillis converts unix milliseconds to the decoded timestamp unit, truncating.
func (l Layout) FromMillis(ms int64) int64 { return ms / l.timeScale() }

// Normalize returns b with its timestamp in unix milliseconds.
func (l Layout) Normalize(b model.Bar) model.Bar {
	b.Timestamp = l.Millis(b.Timestamp)
	return b
}

var legacyFields = [...]Field{
	{Name: FieldTime, Kind: KindDate, Size: 4, Offset: 0},
	{Name: FieldOpen, Kind: KindDouble, Size: 8, Offset: 4},
	{Name: FieldLow, Kind: KindDouble, Size: 8, Offset: 12},
	{Name: FieldHigh, Kind: KindDouble, Size: 8, Offset: 20},
	{Name: FieldClose, Kind: KindDouble, Size: 8, Offset: 28},
	{Name: FieldVolume, Kind: KindDouble, Size: 8, Offset: 36},
	{Name: FieldSpread, Kind: KindConstant},
	{Name: FieldRealVolume, Kind: KindConstant},
}

// The time slot is 8 bytes wide on disk; only the low 4 bytes are decoded.
var currentFields = [...]Field{
	{Name: FieldTime, Kind: KindDate, Size: 8, Offset: 0},
	{Name: FieldOpen, Kind: KindDouble, Size: 8, Offset: 8},
	{Name: FieldHigh, Kind: KindDouble, Size: 8, Offset: 16},
	{Name: FieldLow, Kind: KindDouble, Size: 8, Offset: 24},
	{Name: FieldClose, Kind: KindDouble, Size: 8, Offset: 32},
	{Name: FieldVolume, Kind: KindDouble, Size: 8, Offset: 40},
	{Name: FieldSpread, Kind: KindInt32, Size: 4, Offset: 48},
	{Name: FieldRealVolume, Kind: KindDouble, Size: 8, Offset: 52},
}

var catalog = map[Version]struct {
	recordSize int
	fields     []Field
	timeScale  int64
}{
	VersionLegacy:  {recordSize: 44, fields: legacyFields[:], timeScale: 1},
	VersionCurrent: {recordSize: 60, fields: currentFields[:], timeScale: 1000},
}

// Describe returns the layout registered for v. The returned field slice is a copy.
func Describe(v Version) (Layout, bool) {
	e, ok := catalog[v]
	if !ok {
		return Layout{}, false
	}
	fields := make([]Field, len(e.fields))
	copy(fields, e.fields)
	return Layout{Version: v, RecordSize: e.recordSize, Fields: fields, TimeScale: e.timeScale}, true
}

// IsSupported reports whether v has a registered layout.
func IsSupported(v Version) bool {
	_, ok := catalog[v]
	return ok
}

// Versions lists the registered format versions in ascending order.
func Versions() []Version {
	return []Version{VersionLegacy, VersionCurrent}
}
