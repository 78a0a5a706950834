package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// os.Args is filtered through flagx.FilterArgs so flags owned by other
// components do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-d", "-lt", "-st"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	fs.StringVar(&cfg.DefaultFolder, "f", cfg.DefaultFolder, "default upload folder")
	fs.StringVar(&cfg.HistoryDir, "d", cfg.HistoryDir, "local history directory")
	largeTimeout := fs.Int("lt", int(cfg.LargeTransferTimeout.Minutes()), "large file transfer timeout (in minutes)")
	smallTimeout := fs.Int("st", int(cfg.SmallTransferTimeout.Minutes()), "small file transfer timeout (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.LargeTransferTimeout = time.Duration(*largeTimeout) * time.Minute
	cfg.SmallTransferTimeout = time.Duration(*smallTimeout) * time.Minute
}
