package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type failedEntry struct {
	Path   string `json:"path"`
	Window string `json:"window,omitempty"`
	Reason string `json:"reason"`
}

type successEntry struct {
	Path   string `json:"path"`
	Output string `json:"output"`
	Bars   int    `json:"bars"`
}

type runReport struct {
	RunID    string         `json:"run_id"`
	Finished time.Time      `json:"finished"`
	Success  []successEntry `json:"success,omitempty"`
	Failed   []failedEntry  `json:"failed,omitempty"`
}

func writeRunReport(dir string, s Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if len(s.Succeeded) > 0 {
		p := filepath.Join(dir, ".lastrun.success.json")
		if err := writeJSON(p, runReport{RunID: s.RunID, Finished: s.Finished, Success: s.Succeeded}); err != nil {
			return err
		}
		slog.Info("report wrote success", "path", p, "files", len(s.Succeeded))
	}
	if len(s.FailedList) > 0 {
		p := filepath.Join(dir, ".lastrun.failed.json")
		if err := writeJSON(p, runReport{RunID: s.RunID, Finished: s.Finished, Failed: s.FailedList}); err != nil {
			return err
		}
		slog.Info("report wrote failed", "path", p, "count", len(s.FailedList))
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func joinFailedReasons(failedList []failedEntry) string {
	if len(failedList) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(filepath.Base(f.Path))
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
