package migrations

import "embed"

// FS contains embedded SQLite migrations for requirement storage.
//
//go:embed *.sql
var FS embed.FS
