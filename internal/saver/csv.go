package saver

import (
	"encoding/csv"
	"io"
	"strconv"

	"hst-data/internal/model"
)

// CSVSaver lưu bars dưới dạng CSV (header: t,o,h,l,c,v,s,rv).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (s CSVSaver) Save(bars []model.Bar, path string) error {
	return saveFile(path, func(w io.Writer) error { return s.Write(w, bars) })
}

// Write encodes bars to w.
func (CSVSaver) Write(out io.Writer, bars []model.Bar) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"t", "o", "h", "l", "c", "v", "s", "rv"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			strconv.FormatInt(b.Timestamp, 10),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
			strconv.FormatInt(int64(b.Spread), 10),
			floatStr(b.RealVolume),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
