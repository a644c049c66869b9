// Package db embeds the Postgres migrations so the server binary can apply
// them without a checkout next to it.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
