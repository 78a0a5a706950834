// Package config loads runtime configuration for the lessonvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: LV_SERVER_URL, LV_DEFAULT_FOLDER, LV_HISTORY_DIR, LV_LOG_LEVEL.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the lessonvault server
//	-f string   default upload folder
//	-d string   directory holding the local upload history
//	-lt int     direct-transfer timeout for large files (minutes)
//	-st int     direct-transfer timeout for small files (minutes)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "5m" or
// integer nanoseconds:
//
//	{
//	  "server_url": "https://lessons.example.com",
//	  "large_file_threshold_bytes": 104857600,
//	  "large_transfer_timeout": "30m",
//	  "small_transfer_timeout": "5m",
//	  "default_folder": "uploads",
//	  "history_dir": ".lessonvault"
//	}
package config
