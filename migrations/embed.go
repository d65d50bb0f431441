// Package migrations embeds the SQL schema of the screener project store.
//
// The files are compiled into the binary, so a fresh install needs nothing
// on disk besides the database path.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
