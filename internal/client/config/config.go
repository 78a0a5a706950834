package config

import (
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// Config holds runtime settings for the lessonvault CLI.
//
// Files larger than LargeFileThreshold get LargeTransferTimeout for the direct
// PUT; everything else gets SmallTransferTimeout.
type Config struct {
	ServerURL            string
	LargeFileThreshold   int64
	LargeTransferTimeout time.Duration
	SmallTransferTimeout time.Duration
	DefaultFolder        string
	HistoryDir           string
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.LargeFileThreshold = 100 * common.MiB
	c.LargeTransferTimeout = 30 * time.Minute
	c.SmallTransferTimeout = 5 * time.Minute
	c.DefaultFolder = common.DefaultFolder
	c.HistoryDir = ".lessonvault"
	c.LogLevel = "warn"
}

// TransferTimeout returns the direct-transfer timeout for a file of size bytes.
func (c *Config) TransferTimeout(size int64) time.Duration {
	if size > c.LargeFileThreshold {
		return c.LargeTransferTimeout
	}
	return c.SmallTransferTimeout
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
