// Package migrations embeds the SQL migrations for the sqlite kv backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
