package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hst-data/internal/hst"
	"hst-data/internal/model"
	"hst-data/internal/saver"
	"hst-data/internal/slogx"
)

// Exporter decodes history files and writes their bars with a PacketSaver.
type Exporter struct {
	Saver        saver.PacketSaver
	OutDir       string        // {OutDir}/{SYMBOL}/{symbol}_{period}.{ext}
	ProgressPath string        // optional .lastexport.json
	Workers      int           // default 1
	Heartbeat    time.Duration // 0 disables
	LogLevel     slog.Level
	LogOut       io.Writer // fan-in log sink, default os.Stdout
}

// Summary is the outcome of one Run.
type Summary struct {
	RunID      string
	Success    int
	Failed     int
	Bars       int
	Succeeded  []successEntry
	FailedList []failedEntry
	Finished   time.Time
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok       bool
	Job      Job
	Output   string
	Reason   string
	Bars     int
	LastTime int64
	Records  int
}

// Run exports all jobs with up to Workers files in flight. A failed file does not stop
// the others; only ctx cancellation aborts the run. The run report is written to OutDir.
func (e *Exporter) Run(ctx context.Context, jobs []Job) (Summary, error) {
	if e.Saver == nil {
		return Summary{}, errors.New("export: no saver configured")
	}
	sum := Summary{RunID: uuid.NewString()}
	if len(jobs) == 0 {
		slog.Info("no files to export, skip")
		return sum, nil
	}

	out := e.LogOut
	if out == nil {
		out = os.Stdout
	}
	logs := make(chan string, 2048)
	logger := slogx.NewChanLogger(logs, e.LogLevel).With("run", sum.RunID[:8])
	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		runLogWriter(logs, out)
	}()

	var progress chan ProgressUpdate
	progressDone := make(chan struct{})
	if e.ProgressPath != "" {
		progress = make(chan ProgressUpdate, 256)
		go func() {
			defer close(progressDone)
			RunProgressWriter(e.ProgressPath, progress)
		}()
	} else {
		close(progressDone)
	}

	var c counters
	results := make(chan JobResult, len(jobs))
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for r := range results {
			c.mu.Lock()
			if r.Ok {
				c.success++
				c.bars += r.Bars
				sum.Succeeded = append(sum.Succeeded, successEntry{Path: r.Job.Path, Output: r.Output, Bars: r.Bars})
			} else {
				c.failed++
				sum.FailedList = append(sum.FailedList, failedEntry{Path: r.Job.Path, Window: r.Job.Window(), Reason: r.Reason})
			}
			c.mu.Unlock()
			if r.Ok && progress != nil {
				progress <- ProgressUpdate{Path: r.Job.Path, FileProgress: FileProgress{
					Size: r.Job.Size, Records: r.Records, LastTime: r.LastTime, Output: r.Output,
				}}
			}
		}
	}()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		runHeartbeat(hbCtx, e.Heartbeat, len(jobs), &c, logger)
	}()

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := e.exportOne(gctx, job, logger)
			if errors.Is(gctx.Err(), context.Canceled) && !r.Ok {
				return gctx.Err()
			}
			results <- r
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	close(results)
	<-collectDone
	stopHeartbeat()
	<-hbDone
	if progress != nil {
		close(progress)
	}
	<-progressDone

	sum.Success, sum.Failed, sum.Bars = c.snapshot()
	sum.Finished = time.Now().UTC()
	sort.Slice(sum.Succeeded, func(i, k int) bool { return sum.Succeeded[i].Path < sum.Succeeded[k].Path })
	sort.Slice(sum.FailedList, func(i, k int) bool { return sum.FailedList[i].Path < sum.FailedList[k].Path })

	logger.Info("summary", "total_bars", sum.Bars, "success", sum.Success, "failed", sum.Failed)
	if len(sum.FailedList) > 0 {
		logger.Info("summary failed", "count", len(sum.FailedList), "reasons", joinFailedReasons(sum.FailedList))
	}
	close(logs)
	<-logDone

	if err := writeRunReport(e.OutDir, sum); err != nil {
		slog.Warn("could not write run report", "error", err)
	}
	return sum, runErr
}

func (e *Exporter) exportOne(ctx context.Context, job Job, logger *slog.Logger) JobResult {
	res := JobResult{Job: job}
	fail := func(err error) JobResult {
		res.Reason = err.Error()
		logger.Error("export fail", "file", job.Path, "window", job.Window(), "reason", res.Reason)
		return res
	}

	r, err := hst.Open(job.Path, hst.WithLogger(logger))
	if err != nil {
		return fail(err)
	}
	defer r.Close()

	bars, err := SelectBars(ctx, r, job.From, job.To)
	if err != nil {
		return fail(err)
	}
	if len(bars) == 0 {
		return fail(errors.New("no data"))
	}

	outPath := OutputPath(e.OutDir, r.Header(), job, e.Saver.Extension())
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}
	if err := e.Saver.Save(bars, outPath); err != nil {
		return fail(fmt.Errorf("save %s: %w", outPath, err))
	}

	res.Ok = true
	res.Output = outPath
	res.Bars = len(bars)
	res.Records = r.Len()
	res.LastTime = bars[len(bars)-1].Timestamp
	logger.Info("export ok", "file", job.Path, "symbol", r.Header().Ticker(), "bars", res.Bars, "out", outPath)
	return res
}

// SelectBars reads bars with from <= t < to in unix ms (zero bounds are open). Returned
// timestamps are in ms for every format version. When from is set the start index is
// found with LocateMillis; if from is not an exact bar time the scan starts at 0.
func SelectBars(ctx context.Context, r *hst.Reader, from, to int64) ([]model.Bar, error) {
	start := 0
	if from > 0 {
		if res, err := r.LocateMillis(from); err == nil {
			start = res.Index
		} else if !errors.Is(err, hst.ErrTimestampNotFound) && !errors.Is(err, hst.ErrTooSmall) && !errors.Is(err, hst.ErrOutOfRange) {
			return nil, err
		}
	}

	l := r.Layout()
	bars := make([]model.Bar, 0, max(r.Len()-start, 0))
	for i, b := range r.Range(start) {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b = l.Normalize(b)
		if b.Timestamp < from {
			continue
		}
		if to > 0 && b.Timestamp >= to {
			break
		}
		bars = append(bars, b)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// OutputPath returns {dir}/{SYMBOL}/{symbol}_{period}[_{from}_to_{to}].{ext}.
func OutputPath(dir string, h hst.Header, job Job, ext string) string {
	ticker := h.Ticker()
	if ticker == "" {
		ticker = strings.TrimSuffix(filepath.Base(job.Path), filepath.Ext(job.Path))
	}
	name := fmt.Sprintf("%s_%d", strings.ToLower(ticker), h.Period)
	if job.Window() != "" {
		name += "_" + fmtDay(job.From) + "_to_" + fmtDay(job.To)
	}
	return filepath.Join(dir, strings.ToUpper(ticker), name+"."+ext)
}
