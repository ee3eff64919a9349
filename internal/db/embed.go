package db

import "embed"

// EmbedMigrations holds the notification store schema.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
