// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import "embed"

// FS contains the SQL migration files.
//
//go:embed *.sql
var FS embed.FS
