package export

import (
	"encoding/json"
	"log/slog"
	"os"
)

// FileProgress is the state of a history file at its last successful export.
type FileProgress struct {
	Size     int64  `json:"size"`
	Records  int    `json:"records"`
	LastTime int64  `json:"last_time"`
	Output   string `json:"output"`
}

// ProgressUpdate is sent when a file export succeeds
type ProgressUpdate struct {
	Path string
	FileProgress
}

func loadProgress(path string) map[string]FileProgress {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]FileProgress)
	}
	var m map[string]FileProgress
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]FileProgress)
	}
	return m
}

// RunProgressWriter receives updates and persists to file (run as goroutine)
func RunProgressWriter(path string, updates <-chan ProgressUpdate) {
	m := loadProgress(path)
	for u := range updates {
		m[u.Path] = u.FileProgress
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			slog.Warn("progress marshal error", "error", err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			slog.Warn("progress write error", "error", err)
		}
	}
}
