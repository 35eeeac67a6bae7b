package export

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Ext is the history file extension picked up by Discover.
const Ext = ".hst"

// Job represents one export unit (one history file, optional time window).
type Job struct {
	Path string
	Size int64
	From int64 // ms, inclusive; 0 = from first bar
	To   int64 // ms, exclusive; 0 = until last bar
}

// Window returns a label for the job's time window, empty when unbounded.
func (j Job) Window() string {
	if j.From == 0 && j.To == 0 {
		return ""
	}
	return fmtDay(j.From) + ".." + fmtDay(j.To)
}

func fmtDay(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// Discover walks dir and returns one job per *.hst file, sorted by path.
func Discover(dir string, from, to int64) ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		jobs = append(jobs, Job{Path: path, Size: info.Size(), From: from, To: to})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Path < jobs[k].Path })
	return jobs, nil
}

// JobsForFiles builds jobs for explicit paths.
func JobsForFiles(paths []string, from, to int64) ([]Job, error) {
	jobs := make([]Job, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Path: p, Size: st.Size(), From: from, To: to})
	}
	return jobs, nil
}

// FilterChanged drops jobs whose file size matches the last successful export
// recorded in progressPath. Windowed jobs are never filtered.
func FilterChanged(jobs []Job, progressPath string) []Job {
	m := loadProgress(progressPath)
	out := jobs[:0:0]
	for _, j := range jobs {
		if p, ok := m[j.Path]; ok && j.Window() == "" && p.Size == j.Size {
			continue
		}
		out = append(out, j)
	}
	return out
}
