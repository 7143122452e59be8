package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-t", "-v", "-f", "-issue-token"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            gRPC bind address (e.g., ":50051")
//	-d string            PostgreSQL DSN, empty for in-memory storage
//	-s string            JWT HMAC secret key
//	-t int               access token validity, hours
//	-v string            log level
//	-f string            log format (text, json, console)
//	-issue-token string  print an access token for this user and exit
//
// args are first filtered with flagx.FilterArgs so flags owned by other
// loaders (such as -c) do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("mediakeeper-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	validity := fs.Int("t", int(cfg.AccessTokenValidityDuration.Hours()), "access token validity (in hours)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.IssueTokenFor, "issue-token", cfg.IssueTokenFor, "issue an access token for the user and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.AccessTokenValidityDuration = time.Duration(*validity) * time.Hour
		}
	})
	return nil
}
