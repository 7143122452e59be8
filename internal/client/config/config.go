package config

import (
	"os"
	"time"
)

// Remote store kinds.
const (
	RemoteGRPC = "grpc"
	RemoteS3   = "s3"
)

// Config holds runtime settings of the MediaKeeper client.
//
// Units: all intervals are time.Duration. Flags take seconds for the
// online check and minutes for the sync interval.
type Config struct {
	// Authoritative store
	RemoteKind         string
	ServerEndpointAddr string
	AccessToken        string

	// Network monitor. An empty ProbeURL pings the authoritative store
	// instead of an HTTP endpoint.
	ProbeURL            string
	ProbeTimeout        time.Duration
	OnlineCheckInterval time.Duration

	SyncInterval time.Duration
	CacheTTL     time.Duration

	// Local persistence
	StorageBackend    string
	StorageDir        string
	StoragePassphrase string

	EntityTypes []string

	// APIAddr is the control API listen address; empty disables it.
	APIAddr string

	LogLevel  string
	LogFormat string

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteKind = RemoteGRPC
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.ProbeTimeout = 5 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.SyncInterval = 15 * time.Minute
	c.CacheTTL = 24 * time.Hour
	c.StorageBackend = "sqlite"
	c.StorageDir = "mediakeeper-data"
	c.EntityTypes = []string{"anime", "manga"}
	c.LogLevel = "info"
	c.LogFormat = "console"
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a file is given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
