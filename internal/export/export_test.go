package export

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hst-data/internal/hst"
	"hst-data/internal/hst/hsttest"
	"hst-data/internal/saver"
)

const (
	t0   = int64(1_600_000_000_000)
	hour = int64(3_600_000)
)

func writeHistory(t *testing.T, dir string) (good1, good2, bad string) {
	t.Helper()
	good1 = hsttest.Write(t, dir, "EURUSD60.hst", hsttest.File{Version: 400, Symbol: "EURUSD", Period: 60, Bars: hsttest.Uniform(t0, 60, 24)})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	good2 = hsttest.Write(t, filepath.Join(dir, "sub"), "GBPUSD1.hst", hsttest.File{Version: 400, Symbol: "GBPUSD", Period: 1, Bars: hsttest.Uniform(t0, 1, 10)})
	bad = hsttest.Write(t, dir, "BROKEN.hst", hsttest.File{Version: 999, Symbol: "BROKEN", Period: 1, Bars: hsttest.Uniform(t0, 1, 2)})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	return good1, good2, bad
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	g1, g2, bad := writeHistory(t, dir)

	jobs, err := Discover(dir, 0, 0)
	require.NoError(t, err)
	var paths []string
	for _, j := range jobs {
		paths = append(paths, j.Path)
		assert.Positive(t, j.Size)
	}
	assert.Equal(t, []string{bad, g1, g2}, paths)
}

func TestRunExportsAndReports(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeHistory(t, in)
	jobs, err := Discover(in, 0, 0)
	require.NoError(t, err)

	e := &Exporter{
		Saver:        saver.CSVSaver{},
		OutDir:       out,
		ProgressPath: filepath.Join(out, ".lastexport.json"),
		Workers:      2,
		LogOut:       io.Discard,
	}
	sum, err := e.Run(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 34, sum.Bars)
	assert.NotEmpty(t, sum.RunID)
	require.Len(t, sum.FailedList, 1)
	assert.Contains(t, sum.FailedList[0].Reason, "unsupported format version")

	f, err := os.Open(filepath.Join(out, "EURUSD", "eurusd_60.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 25)

	assert.FileExists(t, filepath.Join(out, "GBPUSD", "gbpusd_1.csv"))
	assert.FileExists(t, filepath.Join(out, ".lastrun.success.json"))
	assert.FileExists(t, filepath.Join(out, ".lastrun.failed.json"))

	// unchanged files are skipped on the next run; the broken one is retried
	again := FilterChanged(jobs, e.ProgressPath)
	require.Len(t, again, 1)
	assert.Equal(t, "BROKEN.hst", filepath.Base(again[0].Path))
}

func TestRunCanceled(t *testing.T) {
	in := t.TempDir()
	writeHistory(t, in)
	jobs, err := Discover(in, 0, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Exporter{Saver: saver.JSONSaver{}, OutDir: t.TempDir(), LogOut: io.Discard}
	sum, err := e.Run(ctx, jobs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Success)
}

func TestRunNoSaver(t *testing.T) {
	_, err := (&Exporter{}).Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestSelectBarsWindow(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"400": hsttest.Write(t, dir, "w400.hst", hsttest.File{Version: 400, Symbol: "EURUSD", Period: 60, Bars: hsttest.Uniform(t0, 60, 10)}),
		"401": hsttest.Write(t, dir, "w401.hst", hsttest.File{Version: 401, Symbol: "EURUSD", Period: 60, Bars: hsttest.UniformSeconds(t0, 60, 10)}),
	}

	for version, path := range files {
		for _, tc := range []struct {
			name     string
			from, to int64
			first    int64
			n        int
		}{
			{"all", 0, 0, t0, 10},
			{"exact from", t0 + 3*hour, t0 + 6*hour, t0 + 3*hour, 3},
			{"from between bars", t0 + 3*hour + 1, 0, t0 + 4*hour, 6},
			{"to only", 0, t0 + 2*hour, t0, 2},
			{"from past end", t0 + 100*hour, 0, 0, 0},
		} {
			t.Run(version+"/"+tc.name, func(t *testing.T) {
				r, err := hst.Open(path)
				require.NoError(t, err)
				defer r.Close()

				bars, err := SelectBars(context.Background(), r, tc.from, tc.to)
				require.NoError(t, err)
				require.Len(t, bars, tc.n)
				if tc.n > 0 {
					assert.Equal(t, tc.first, bars[0].Timestamp)
					assert.Equal(t, tc.first+int64(tc.n-1)*hour, bars[tc.n-1].Timestamp)
				}
			})
		}
	}
}

func TestOutputPath(t *testing.T) {
	h := hst.Header{Symbol: "EURUSD\x00\x00\x00\x00\x00\x00", Period: 60}
	assert.Equal(t, filepath.Join("out", "EURUSD", "eurusd_60.parquet"), OutputPath("out", h, Job{Path: "x.hst"}, "parquet"))

	job := Job{Path: "x.hst", From: t0, To: t0 + 48*hour}
	assert.Equal(t, filepath.Join("out", "EURUSD", "eurusd_60_2020-09-13_to_2020-09-15.csv"), OutputPath("out", h, job, "csv"))

	blank := hst.Header{Symbol: string(make([]byte, 12)), Period: 5}
	assert.Equal(t, filepath.Join("out", "USDJPY5", "usdjpy5_5.json"), OutputPath("out", blank, Job{Path: "/h/USDJPY5.hst"}, "json"))
}

func TestJoinFailedReasons(t *testing.T) {
	assert.Empty(t, joinFailedReasons(nil))
	got := joinFailedReasons([]failedEntry{{Path: "/a/A.hst", Reason: "x"}, {Path: "B.hst", Reason: "y"}})
	assert.Equal(t, "A.hst: x; B.hst: y", got)
}
