package migrations

import "embed"

// FS contains the catalog schema migrations.
//
//go:embed *.sql
var FS embed.FS
