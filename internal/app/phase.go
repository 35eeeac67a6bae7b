package app

import (
	"context"
	"log/slog"
	"time"

	"hst-data/internal/export"
)

// RunFlow orchestrates the export loop: run → wait until next run time → run, until ctx is done.
func RunFlow(ctx context.Context, cfg *Config, e *export.Exporter) error {
	for {
		sum, err := RunOnce(ctx, cfg, e, 0, 0)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("export interrupted", "success", sum.Success, "failed", sum.Failed)
				return nil
			}
			return err
		}
		slog.Info("done, wait until next run", "success", sum.Success, "failed", sum.Failed, "bars", sum.Bars)

		nextRun := nextRunTime(cfg, time.Now().UTC())
		slog.Info("timer waiting", "hours", time.Until(nextRun).Hours(), "until", nextRun.Format("2006-01-02 15:04"))
		timer := time.NewTimer(time.Until(nextRun))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			slog.Info("stopping", "restart_at", nextRun.Format("2006-01-02 15:04"))
			return nil
		}
	}
}

func nextRunTime(cfg *Config, now time.Time) time.Time {
	hour, minute := cfg.RunHour, cfg.RunMinute
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, time.UTC)
}
