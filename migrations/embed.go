// Package migrations embeds the SQL migration files so the server can
// apply them with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
