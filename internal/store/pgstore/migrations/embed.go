// Package migrations embeds the schema migrations of the remote store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
