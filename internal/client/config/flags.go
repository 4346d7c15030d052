package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags applies the command-line overrides:
//
//	-a string   backend address (host:port)
//	-i int      online check interval, seconds
//	-d string   SQLite database path
//
// Other flags in args are ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("gophauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the backend")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval/time.Second), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local session database")

	if err := fs.Parse(flagx.Select(args, "-a", "-i", "-d")); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
