package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

func runLogWriter(lines <-chan string, out io.Writer) {
	for s := range lines {
		fmt.Fprintln(out, s)
	}
}

type counters struct {
	mu      sync.Mutex
	success int
	failed  int
	bars    int
}

func (c *counters) snapshot() (success, failed, bars int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success, c.failed, c.bars
}

func runHeartbeat(ctx context.Context, interval time.Duration, totalJobs int, c *counters, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, f, bars := c.snapshot()
			logger.Info("heartbeat", "done", s+f, "total", totalJobs, "success", s, "failed", f, "bars", bars)
		}
	}
}
