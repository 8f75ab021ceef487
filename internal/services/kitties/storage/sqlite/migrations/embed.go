// Package migrations embeds the kitty ledger SQLite schema.
package migrations

import "embed"

// FS contains embedded SQLite migrations for the kitty ledger.
//
//go:embed *.sql
var FS embed.FS
