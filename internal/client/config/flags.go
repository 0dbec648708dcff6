package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
	"github.com/dmitrijs2005/nutrikeeper/internal/flagx"
)

// parseFlags applies the command-line flags this package owns:
//
//	-a string   API base URL
//	-p string   platform: web, ios or android
//	-d string   data directory
//	-i int      online check interval in seconds
//
// Other arguments are filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-p", "-d", "-i"})

	fs := flag.NewFlagSet("nutrikeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "API base URL")
	p := fs.String("p", string(cfg.Platform), "platform (web, ios, android)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Platform = platform.Platform(*p)
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
