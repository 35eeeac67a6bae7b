package saver

import (
	"encoding/json"
	"io"

	"hst-data/internal/model"
)

// JSONSaver lưu bars dưới dạng JSON (array, indent).
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (s JSONSaver) Save(bars []model.Bar, path string) error {
	return saveFile(path, func(w io.Writer) error { return s.Write(w, bars) })
}

// Write encodes bars to w.
func (JSONSaver) Write(w io.Writer, bars []model.Bar) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bars)
}
