//go:build wireinject
// +build wireinject

package main

import (
	"hst-data/internal/app"
	"hst-data/internal/export"

	"github.com/google/wire"
)

// InitializeExporter builds the Exporter (PacketSaver from cfg) via Wire.
func InitializeExporter(cfg *app.Config) (*export.Exporter, error) {
	wire.Build(
		app.ProvidePacketSaver,
		app.ProvideExporter,
	)
	return nil, nil
}
