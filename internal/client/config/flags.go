package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-r", "-p", "-i", "-s", "-b", "-d", "-k", "-e", "-l", "-v", "-f"}

// parseFlags populates Config fields from command-line flags. args is
// filtered with flagx.FilterArgs first, so flags owned by other loaders
// (such as -c) do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("mediakeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the authoritative store")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.StringVar(&cfg.RemoteKind, "r", cfg.RemoteKind, "remote store kind (grpc, s3)")
	fs.StringVar(&cfg.ProbeURL, "p", cfg.ProbeURL, "reachability probe URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Minutes()), "sync interval (in minutes)")
	fs.StringVar(&cfg.StorageBackend, "b", cfg.StorageBackend, "storage backend (sqlite, badger, file, memory)")
	fs.StringVar(&cfg.StorageDir, "d", cfg.StorageDir, "storage directory")
	fs.StringVar(&cfg.StoragePassphrase, "k", cfg.StoragePassphrase, "storage passphrase")
	entityTypes := fs.String("e", strings.Join(cfg.EntityTypes, ","), "comma separated entity types")
	fs.StringVar(&cfg.APIAddr, "l", cfg.APIAddr, "control API listen address")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (console, text, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only flags given explicitly replace the finer grained values that
	// defaults or JSON may have set.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		case "s":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Minute
		case "e":
			cfg.EntityTypes = splitList(*entityTypes)
		}
	})

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
