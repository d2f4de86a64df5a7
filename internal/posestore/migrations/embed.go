package migrations

import "embed"

// FS contains embedded SQLite migrations for pose storage.
//
//go:embed *.sql
var FS embed.FS
