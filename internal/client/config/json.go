package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/flagx"
	"github.com/dmitrijs2005/lessonvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their current value.
type JsonConfig struct {
	ServerURL            string         `json:"server_url"`
	LargeFileThreshold   int64          `json:"large_file_threshold_bytes"`
	LargeTransferTimeout timex.Duration `json:"large_transfer_timeout"`
	SmallTransferTimeout timex.Duration `json:"small_transfer_timeout"`
	DefaultFolder        string         `json:"default_folder"`
	HistoryDir           string         `json:"history_dir"`
	LogLevel             string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setStr(&cfg.ServerURL, jc.ServerURL)
	setStr(&cfg.DefaultFolder, jc.DefaultFolder)
	setStr(&cfg.HistoryDir, jc.HistoryDir)
	setStr(&cfg.LogLevel, jc.LogLevel)
	if jc.LargeFileThreshold > 0 {
		cfg.LargeFileThreshold = jc.LargeFileThreshold
	}
	if jc.LargeTransferTimeout.Duration > 0 {
		cfg.LargeTransferTimeout = time.Duration(jc.LargeTransferTimeout.Duration)
	}
	if jc.SmallTransferTimeout.Duration > 0 {
		cfg.SmallTransferTimeout = time.Duration(jc.SmallTransferTimeout.Duration)
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
