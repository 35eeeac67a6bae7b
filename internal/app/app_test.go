package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hst-data/internal/hst/hsttest"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("HST_DIR", "/mt4/history")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("SAVE_FORMAT", "")
	t.Setenv("PROFILE", "dev")
	t.Setenv("WORKERS", "8")
	t.Setenv("HEARTBEAT_SEC", "-5")
	t.Setenv("EXPORT_RUN_HOUR", "25")

	cfg := LoadConfig()
	assert.Equal(t, "/mt4/history", cfg.HistoryDir)
	assert.Equal(t, "csv", cfg.SaveFormat)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 10, cfg.HeartbeatSec)
	assert.Equal(t, 0, cfg.RunHour)
	assert.Equal(t, 30, cfg.RunMinute)
	assert.Equal(t, filepath.Join("/srv/data", "History"), cfg.ExportDir())
	assert.Equal(t, filepath.Join("/srv/data", "History", ".lastexport.json"), cfg.ProgressPath())
}

func TestProvidePacketSaver(t *testing.T) {
	ps, err := ProvidePacketSaver(&Config{SaveFormat: "csv", Compression: "gzip"})
	require.NoError(t, err)
	assert.Equal(t, "csv.gz", ps.Extension())

	_, err = ProvidePacketSaver(&Config{SaveFormat: "xlsx"})
	assert.Error(t, err)
}

func TestRunOnceSkipsUnchanged(t *testing.T) {
	cfg := &Config{HistoryDir: t.TempDir(), DataDir: t.TempDir(), SaveFormat: "json", Workers: 2}
	hsttest.Write(t, cfg.HistoryDir, "EURUSD60.hst", hsttest.File{
		Version: 400, Symbol: "EURUSD", Period: 60, Bars: hsttest.Uniform(1_600_000_000_000, 60, 5),
	})
	ps, err := ProvidePacketSaver(cfg)
	require.NoError(t, err)
	e := ProvideExporter(cfg, ps)
	e.LogOut = io.Discard

	sum, err := RunOnce(context.Background(), cfg, e, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
	assert.FileExists(t, filepath.Join(cfg.ExportDir(), "EURUSD", "eurusd_60.json"))

	sum, err = RunOnce(context.Background(), cfg, e, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, sum.Success+sum.Failed)

	cfg.Force = true
	sum, err = RunOnce(context.Background(), cfg, e, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
}

func TestNextRunTime(t *testing.T) {
	cfg := &Config{RunHour: 0, RunMinute: 30}
	now := time.Date(2026, 3, 1, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC), nextRunTime(cfg, now))
	now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC), nextRunTime(cfg, now))
}

func TestRunFlowStopsOnCancel(t *testing.T) {
	cfg := &Config{HistoryDir: t.TempDir(), DataDir: t.TempDir(), SaveFormat: "csv", RunHour: 0, RunMinute: 0}
	ps, err := ProvidePacketSaver(cfg)
	require.NoError(t, err)
	e := ProvideExporter(cfg, ps)
	e.LogOut = io.Discard

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, RunFlow(ctx, cfg, e))
}
