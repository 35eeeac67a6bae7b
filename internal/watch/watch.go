// Package watch follows a history file that the terminal keeps appending to.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"hst-data/internal/hst"
	"hst-data/internal/model"
)

// Update is one bar seen by the follower, with its timestamp in unix ms. Revised is set when the last bar
// was rewritten in place (the forming bar of the current period).
type Update struct {
	Index   int
	Bar     model.Bar
	Revised bool
}

// Follower emits bars of one file as they appear.
type Follower struct {
	Path    string
	Poll    time.Duration // 0 disables polling, fsnotify only
	FromEnd bool          // skip bars present at start
	Logger  *slog.Logger

	r    *hst.Reader
	next int
	last model.Bar
}

// Run watches Path until ctx is done. The file must exist and be a valid history file.
func (f *Follower) Run(ctx context.Context, out chan<- Update) error {
	if f.Logger == nil {
		f.Logger = slog.Default()
	}
	path := filepath.Clean(f.Path)
	if err := f.start(path); err != nil {
		return err
	}
	defer func() { _ = f.r.Close() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	// watch the directory so a replaced file is picked up again
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		f.Logger.Warn("failed to watch directory", "dir", filepath.Dir(path), "error", err)
	}

	if err := f.drain(ctx, out); err != nil && ctx.Err() == nil {
		return err
	}

	var tickCh <-chan time.Time
	if f.Poll > 0 {
		ticker := time.NewTicker(f.Poll)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				if err := f.reopen(path); err != nil {
					f.Logger.Warn("reopen failed", "path", path, "error", err)
					continue
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				f.Logger.Info("history file removed, waiting for it to come back", "path", path)
				continue
			}
			if err := f.drain(ctx, out); err != nil && ctx.Err() == nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.Logger.Warn("fsnotify error", "error", err)

		case <-tickCh:
			if err := f.drain(ctx, out); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

// start opens path and sets the first index to emit.
func (f *Follower) start(path string) error {
	if err := f.open(path); err != nil {
		return err
	}
	f.next, f.last = 0, model.Bar{}
	if f.FromEnd {
		f.next = f.r.Len()
		if f.next > 0 {
			if b, err := f.r.Seek(f.next - 1); err == nil {
				f.last = f.r.Layout().Normalize(b)
			}
		}
	}
	return nil
}

func (f *Follower) open(path string) error {
	r, err := hst.Open(path, hst.WithLogger(f.Logger))
	if err != nil {
		return err
	}
	f.r = r
	return nil
}

func (f *Follower) reopen(path string) error {
	old := f.r
	if err := f.open(path); err != nil {
		return err
	}
	_ = old.Close()
	return nil
}

// drain emits the revised last bar, if any, and every record from f.next on.
func (f *Follower) drain(ctx context.Context, out chan<- Update) error {
	if _, err := f.r.Refresh(); err != nil {
		return err
	}
	n := f.r.Len()
	if n < f.next {
		f.Logger.Warn("history file shrank, restarting from first bar", "path", f.Path, "records", n, "next", f.next)
		f.next = 0
		f.last = model.Bar{}
	}

	l := f.r.Layout()
	if f.next > 0 {
		b, err := f.r.Seek(f.next - 1)
		if err != nil {
			return err
		}
		if b = l.Normalize(b); b != f.last {
			f.last = b
			if err := send(ctx, out, Update{Index: f.next - 1, Bar: b, Revised: true}); err != nil {
				return err
			}
		}
	}

	for i, b := range f.r.Range(f.next) {
		b = l.Normalize(b)
		if err := send(ctx, out, Update{Index: i, Bar: b}); err != nil {
			return err
		}
		f.last = b
		f.next = i + 1
	}
	if err := f.r.Err(); err != nil && !errors.Is(err, hst.ErrOutOfRange) {
		return err
	}
	return nil
}

func send(ctx context.Context, out chan<- Update, u Update) error {
	select {
	case out <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
