package app

import (
	"fmt"
	"time"

	"hst-data/internal/export"
	"hst-data/internal/saver"
	"hst-data/internal/slogx"
)

// ProvidePacketSaver creates PacketSaver from config (for Wire).
// Returns error if SaveFormat or Compression is not supported.
func ProvidePacketSaver(cfg *Config) (saver.PacketSaver, error) {
	ps, err := saver.New(cfg.SaveFormat, cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("SAVE_FORMAT/COMPRESS: %w", err)
	}
	return ps, nil
}

// ProvideExporter creates the exporter writing under cfg.ExportDir (for Wire).
func ProvideExporter(cfg *Config, ps saver.PacketSaver) *export.Exporter {
	return &export.Exporter{
		Saver:        ps,
		OutDir:       cfg.ExportDir(),
		ProgressPath: cfg.ProgressPath(),
		Workers:      cfg.Workers,
		Heartbeat:    time.Duration(cfg.HeartbeatSec) * time.Second,
		LogLevel:     slogx.ParseLevel(cfg.LogLevel),
	}
}
