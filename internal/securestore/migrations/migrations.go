// Package migrations embeds the schema for the SQLite-backed secure store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
