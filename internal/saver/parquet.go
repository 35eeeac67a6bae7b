package saver

import (
	"github.com/parquet-go/parquet-go"

	"hst-data/internal/model"
)

// ParquetSaver lưu bars dưới dạng Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.Bar, path string) error {
	return parquet.WriteFile(path, bars)
}
