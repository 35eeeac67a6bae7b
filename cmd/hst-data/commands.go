package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hst-data/internal/app"
	"hst-data/internal/export"
	"hst-data/internal/hst"
	"hst-data/internal/model"
	"hst-data/internal/saver"
	"hst-data/internal/watch"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show header and record layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := hst.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			h, l := r.Header(), r.Layout()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "file\t%s\n", r.Path())
			fmt.Fprintf(tw, "version\t%d\n", h.Version)
			fmt.Fprintf(tw, "symbol\t%q\n", h.Symbol)
			fmt.Fprintf(tw, "period\t%d min\n", h.Period)
			fmt.Fprintf(tw, "start\t%s\n", formatMillis(h.Start))
			fmt.Fprintf(tw, "record size\t%d\n", l.RecordSize)
			fmt.Fprintf(tw, "records\t%d\n", r.Len())
			if r.Len() > 0 {
				if last, err := r.Seek(r.Len() - 1); err == nil {
					fmt.Fprintf(tw, "last bar\t%s\n", formatMillis(l.Millis(last.Timestamp)))
				}
			}
			fmt.Fprintln(tw, "\nfield\tkind\toffset\tsize")
			for _, f := range l.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", f.Name, f.Kind, f.Offset, f.Size)
			}
			return tw.Flush()
		},
	}
}

func newDumpCmd() *cobra.Command {
	var from, count int
	var format string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print bars as csv or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, ok := saver.NewPacketSaver(format).(saver.StreamWriter)
			if !ok {
				return fmt.Errorf("dump supports csv or json, got %q", format)
			}
			r, err := hst.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			l := r.Layout()
			var bars []model.Bar
			for _, b := range r.Range(from) {
				if count > 0 && len(bars) >= count {
					break
				}
				bars = append(bars, l.Normalize(b))
			}
			if err := r.Err(); err != nil {
				return err
			}
			return w.Write(cmd.OutOrStdout(), bars)
		},
	}
	cmd.Flags().IntVar(&from, "from-index", 0, "first record index")
	cmd.Flags().IntVar(&count, "count", 0, "max records (0 = all)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv | json")
	return cmd
}

func newSeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seek <file> <index>",
		Short: "Print the bar at a record index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			r, err := hst.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			b, err := r.Seek(idx)
			if err != nil {
				return err
			}
			return printBars(cmd.OutOrStdout(), []int{idx}, []model.Bar{r.Layout().Normalize(b)})
		},
	}
}

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <file> <time>",
		Short: "Find the bar at a timestamp (ms, RFC3339 or \"2006-01-02 15:04\")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTime(args[1])
			if err != nil {
				return err
			}
			r, err := hst.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := r.LocateMillis(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "found after %d refinements\n", res.Attempts)
			return printBars(cmd.OutOrStdout(), []int{res.Index}, []model.Bar{res.Bar})
		},
	}
}

func newExportCmd(cfg *app.Config) *cobra.Command {
	var fromStr, toStr string
	var daemon bool
	cmd := &cobra.Command{
		Use:   "export [file...]",
		Short: "Export history files to csv, json or parquet",
		Long:  "Export the given files, or every *.hst under --dir when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var from, to int64
			var err error
			if fromStr != "" {
				if from, err = parseTime(fromStr); err != nil {
					return err
				}
			}
			if toStr != "" {
				if to, err = parseTime(toStr); err != nil {
					return err
				}
			}

			e, err := InitializeExporter(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if daemon {
				if len(args) > 0 || from != 0 || to != 0 {
					return errors.New("--daemon exports --dir only, without a time window")
				}
				return app.RunFlow(ctx, cfg, e)
			}
			if len(args) == 0 {
				_, err := app.RunOnce(ctx, cfg, e, from, to)
				return err
			}
			jobs, err := export.JobsForFiles(args, from, to)
			if err != nil {
				return err
			}
			_, err = e.Run(ctx, jobs)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.HistoryDir, "dir", cfg.HistoryDir, "history directory ($HST_DIR)")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "output root ($DATA_DIR)")
	f.StringVar(&cfg.SaveFormat, "format", cfg.SaveFormat, "csv | json | parquet ($SAVE_FORMAT)")
	f.StringVar(&cfg.Compression, "compress", cfg.Compression, "none | gzip | zstd ($COMPRESS)")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "files exported in parallel ($WORKERS)")
	f.BoolVar(&cfg.Force, "force", cfg.Force, "export files unchanged since the last run")
	f.StringVar(&fromStr, "from", "", "window start (inclusive)")
	f.StringVar(&toStr, "to", "", "window end (exclusive)")
	f.BoolVar(&daemon, "daemon", false, "re-run daily at $EXPORT_RUN_HOUR:$EXPORT_RUN_MINUTE UTC")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var fromEnd bool
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Print bars as the terminal appends them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := &watch.Follower{Path: args[0], Poll: poll, FromEnd: fromEnd}
			updates := make(chan watch.Update, 64)
			errc := make(chan error, 1)
			go func() {
				errc <- fl.Run(cmd.Context(), updates)
				close(updates)
			}()

			out := cmd.OutOrStdout()
			for u := range updates {
				mark := ""
				if u.Revised {
					mark = " (revised)"
				}
				fmt.Fprintf(out, "%d\t%s\t%s%s\n", u.Index, formatMillis(u.Bar.Timestamp), formatOHLCV(u.Bar), mark)
			}
			return <-errc
		},
	}
	cmd.Flags().BoolVar(&fromEnd, "from-end", false, "only print bars added after start")
	cmd.Flags().DurationVar(&poll, "poll", 2*time.Second, "poll interval in addition to fs events (0 = events only)")
	return cmd
}

func printBars(w io.Writer, idx []int, bars []model.Bar) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "index\ttime\topen\thigh\tlow\tclose\tvolume\tspread\treal_volume")
	for i, b := range bars {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%g\n", idx[i], formatMillis(b.Timestamp), formatOHLCV(b), b.Spread, b.RealVolume)
	}
	return tw.Flush()
}

func formatOHLCV(b model.Bar) string {
	return fmt.Sprintf("%g\t%g\t%g\t%g\t%g", b.Open, b.High, b.Low, b.Close, b.Volume)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

// parseTime accepts unix milliseconds, RFC3339 or "2006-01-02[ 15:04]" in UTC.
func parseTime(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", s)
}
