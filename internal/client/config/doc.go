// Package config loads runtime configuration for the MediaKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the authoritative gRPC store
//	-t string   access token sent with every gRPC call
//	-r string   remote store kind: grpc or s3
//	-p string   reachability probe URL (empty: ping the store)
//	-i int      online status check interval (seconds)
//	-s int      sync interval (minutes, floor 5)
//	-b string   storage backend: sqlite, badger, file or memory
//	-d string   storage directory
//	-k string   storage passphrase (enables encryption at rest)
//	-e string   comma separated entity types
//	-l string   control API listen address (empty: disabled)
//	-v string   log level
//	-f string   log format: console, text or json
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "remote": "grpc",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "...",
//	  "probe_url": "https://example.com/health",
//	  "probe_timeout": "5s",
//	  "online_check_interval": "30s",
//	  "sync_interval": "15m",
//	  "cache_ttl": "24h",
//	  "storage": {"backend": "sqlite", "dir": "data", "passphrase": ""},
//	  "entity_types": ["anime", "manga"],
//	  "api_addr": "127.0.0.1:8081",
//	  "log": {"level": "info", "format": "json"},
//	  "s3": {"bucket": "media", "prefix": "records/", "region": "us-east-1",
//	         "access_key": "", "secret_key": "", "base_endpoint": ""}
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values. The S3 store additionally honours
// the standard AWS credential chain when no keys are configured.
package config
