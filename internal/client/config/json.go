package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/flagx"
	"github.com/dmitrijs2005/mediakeeper/internal/timex"
	"github.com/goccy/go-json"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Only the
// fields present in the file override the current values.
type JsonConfig struct {
	RemoteKind          string         `json:"remote"`
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	AccessToken         string         `json:"access_token"`
	ProbeURL            string         `json:"probe_url"`
	ProbeTimeout        timex.Duration `json:"probe_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	CacheTTL            timex.Duration `json:"cache_ttl"`
	Storage             struct {
		Backend    string `json:"backend"`
		Dir        string `json:"dir"`
		Passphrase string `json:"passphrase"`
	} `json:"storage"`
	EntityTypes []string `json:"entity_types"`
	APIAddr     string   `json:"api_addr"`
	Log         struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
	S3 struct {
		Bucket       string `json:"bucket"`
		Prefix       string `json:"prefix"`
		Region       string `json:"region"`
		AccessKey    string `json:"access_key"`
		SecretKey    string `json:"secret_key"`
		BaseEndpoint string `json:"base_endpoint"`
	} `json:"s3"`
}

// parseJson overlays cfg with the JSON file named by -c or -config in args.
// Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.RemoteKind, jc.RemoteKind)
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.ProbeURL, jc.ProbeURL)
	setDuration(&cfg.ProbeTimeout, jc.ProbeTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.SyncInterval, jc.SyncInterval)
	setDuration(&cfg.CacheTTL, jc.CacheTTL)
	setString(&cfg.StorageBackend, jc.Storage.Backend)
	setString(&cfg.StorageDir, jc.Storage.Dir)
	setString(&cfg.StoragePassphrase, jc.Storage.Passphrase)
	if len(jc.EntityTypes) > 0 {
		cfg.EntityTypes = jc.EntityTypes
	}
	setString(&cfg.APIAddr, jc.APIAddr)
	setString(&cfg.LogLevel, jc.Log.Level)
	setString(&cfg.LogFormat, jc.Log.Format)
	setString(&cfg.S3Bucket, jc.S3.Bucket)
	setString(&cfg.S3Prefix, jc.S3.Prefix)
	setString(&cfg.S3Region, jc.S3.Region)
	setString(&cfg.S3AccessKey, jc.S3.AccessKey)
	setString(&cfg.S3SecretKey, jc.S3.SecretKey)
	setString(&cfg.S3BaseEndpoint, jc.S3.BaseEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
