// Package migrations embeds the artifact database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
