package config

import "github.com/dmitrijs2005/lessonvault/internal/flagx"

func parseEnv(c *Config) {
	flagx.SetString(&c.ServerURL, "LV_SERVER_URL")
	flagx.SetString(&c.DefaultFolder, "LV_DEFAULT_FOLDER")
	flagx.SetString(&c.HistoryDir, "LV_HISTORY_DIR")
	flagx.SetString(&c.LogLevel, "LV_LOG_LEVEL")
	flagx.SetInt64(&c.LargeFileThreshold, "LV_LARGE_FILE_THRESHOLD")
}
