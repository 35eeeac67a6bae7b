package app

import (
	"context"
	"log/slog"
	"os"

	"hst-data/internal/export"
)

// PlanJobs discovers history files under cfg.HistoryDir and, unless Force is set,
// drops the ones unchanged since the last export.
func PlanJobs(cfg *Config, from, to int64) ([]export.Job, error) {
	jobs, err := export.Discover(cfg.HistoryDir, from, to)
	if err != nil {
		return nil, err
	}
	if cfg.Force {
		return jobs, nil
	}
	n := len(jobs)
	jobs = export.FilterChanged(jobs, cfg.ProgressPath())
	if skipped := n - len(jobs); skipped > 0 {
		slog.Info("files up to date", "skipped", skipped, "jobs", len(jobs))
	}
	return jobs, nil
}

// RunOnce plans and runs one export cycle.
func RunOnce(ctx context.Context, cfg *Config, e *export.Exporter, from, to int64) (export.Summary, error) {
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return export.Summary{}, err
	}
	jobs, err := PlanJobs(cfg, from, to)
	if err != nil {
		return export.Summary{}, err
	}
	slog.Info("export", "dir", cfg.HistoryDir, "jobs", len(jobs), "format", e.Saver.Extension(), "out", cfg.ExportDir())
	return e.Run(ctx, jobs)
}
