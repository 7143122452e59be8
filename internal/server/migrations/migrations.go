// Package migrations embeds the Postgres schema of the authoritative store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
