package app

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds application configuration from env
type Config struct {
	HistoryDir   string // where the terminal keeps *.hst files
	DataDir      string
	SaveFormat   string // csv | json | parquet
	Compression  string // none | gzip | zstd
	LogLevel     string // debug | info | warn | error
	Workers      int
	HeartbeatSec int
	Force        bool // export unchanged files too
	RunHour      int
	RunMinute    int
}

// LoadConfig reads config from environment
func LoadConfig() *Config {
	cfg := &Config{
		HistoryDir:   getEnv("HST_DIR", "history"),
		DataDir:      getEnv("DATA_DIR", "data"),
		Compression:  getEnv("COMPRESS", "none"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Workers:      getEnvInt("WORKERS", 4, 1, 256),
		HeartbeatSec: getEnvInt("HEARTBEAT_SEC", 10, 0, 3600),
		Force:        os.Getenv("FORCE") == "1" || os.Getenv("FORCE") == "true",
		RunHour:      getEnvInt("EXPORT_RUN_HOUR", 0, 0, 23),
		RunMinute:    getEnvInt("EXPORT_RUN_MINUTE", 30, 0, 59),
	}
	cfg.SaveFormat = getSaveFormat()
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt parses key as int within [lo, hi]; anything else gives def.
func getEnvInt(key string, def, lo, hi int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}

func getSaveFormat() string {
	if v := os.Getenv("SAVE_FORMAT"); v != "" {
		return v
	}
	switch os.Getenv("PROFILE") {
	case "dev", "development":
		return "csv"
	default:
		return "parquet"
	}
}

// ExportDir returns data/History
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "History")
}

// ProgressPath returns path to .lastexport.json
func (c *Config) ProgressPath() string {
	return filepath.Join(c.ExportDir(), ".lastexport.json")
}
