// Package migrations embeds the schema so cmd/migrate ships without SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
