package model

import "time"

// Bar represents one OHLCV bar decoded from a history file.
// Dùng chung cho reader, saver và serialization (json, parquet).
type Bar struct {
	Timestamp  int64   `json:"t" parquet:"t"` // milliseconds (raw unit for format 401, see hst codec)
	Open       float64 `json:"o" parquet:"o"`
	High       float64 `json:"h" parquet:"h"`
	Low        float64 `json:"l" parquet:"l"`
	Close      float64 `json:"c" parquet:"c"`
	Volume     float64 `json:"v" parquet:"v"`
	Spread     int32   `json:"s,omitempty" parquet:"s,optional"`   // 0 for legacy files
	RealVolume float64 `json:"rv,omitempty" parquet:"rv,optional"` // 0 for legacy files
}

// Time returns Timestamp as UTC time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}
