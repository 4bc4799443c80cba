// Package migrations embeds the goose SQL migrations of the PostgreSQL
// user store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
