// Package migrations embeds goose SQL migrations for the coordinator schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
